package zoho

import "errors"

// Default endpoints for the Zoho Books API and the Zoho accounts server.
const (
	DefaultAPIBaseURL      = "https://www.zohoapis.com"
	DefaultAccountsBaseURL = "https://accounts.zoho.com"
	DefaultTimeoutSeconds  = 30
)

// Fixed business terms applied to every estimate this service creates.
const (
	DefaultRetainerPercentage = 50
	DefaultSalespersonName    = "Paul Patterson"

	// TemplateFieldPlaceholder seeds the Sidemark / Client PO / EST Lead Time
	// estimate custom fields; sales fills them in later inside Zoho Books.
	TemplateFieldPlaceholder = "TBA"
)

var (
	ErrConfigMissingClientID     = errors.New("zoho: missing client ID")
	ErrConfigMissingClientSecret = errors.New("zoho: missing client secret")
	ErrConfigMissingRefreshToken = errors.New("zoho: missing refresh token")
	ErrConfigMissingOrganization = errors.New("zoho: missing organization ID")
)

// Config holds credentials and endpoints for one Zoho Books organization.
type Config struct {
	ClientID       string
	ClientSecret   string
	RefreshToken   string
	OrganizationID string

	APIBaseURL      string
	AccountsBaseURL string
	TimeoutSeconds  int

	// RetainerPercentage and SalespersonName are the fixed business terms on
	// created estimates.
	RetainerPercentage int
	SalespersonName    string

	// SendEstimateEmail controls the send=true|false flag on estimate
	// creation.
	SendEstimateEmail bool
}

// NewConfig creates a config with production endpoints and default terms.
func NewConfig(clientID, clientSecret, refreshToken, organizationID string) *Config {
	return &Config{
		ClientID:           clientID,
		ClientSecret:       clientSecret,
		RefreshToken:       refreshToken,
		OrganizationID:     organizationID,
		APIBaseURL:         DefaultAPIBaseURL,
		AccountsBaseURL:    DefaultAccountsBaseURL,
		TimeoutSeconds:     DefaultTimeoutSeconds,
		RetainerPercentage: DefaultRetainerPercentage,
		SalespersonName:    DefaultSalespersonName,
		SendEstimateEmail:  true,
	}
}

// Validate checks required fields and fills endpoint defaults.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return ErrConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrConfigMissingClientSecret
	}
	if c.RefreshToken == "" {
		return ErrConfigMissingRefreshToken
	}
	if c.OrganizationID == "" {
		return ErrConfigMissingOrganization
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = DefaultAPIBaseURL
	}
	if c.AccountsBaseURL == "" {
		c.AccountsBaseURL = DefaultAccountsBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.RetainerPercentage <= 0 {
		c.RetainerPercentage = DefaultRetainerPercentage
	}
	if c.SalespersonName == "" {
		c.SalespersonName = DefaultSalespersonName
	}
	return nil
}
