package lifecycle

// Aliases for backward compatibility

type Service = LifecycleService

const (
	JurisdictionCN = "CN"
	JurisdictionUS = "US"
	JurisdictionEP = "EP"
	JurisdictionJP = "JP"
	JurisdictionKR = "KR"
)
