package models

// BotConfig holds the texts the auto-reply script is built from.
type BotConfig struct {
	BotName        string `json:"botName" mapstructure:"botName"`
	CompanyName    string `json:"companyName" mapstructure:"companyName"`
	WelcomeMessage string `json:"welcomeMessage" mapstructure:"welcomeMessage"`
	WebsiteURL     string `json:"websiteUrl" mapstructure:"websiteUrl"`
}

type OperatingHours struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Start   string `json:"start" mapstructure:"start"`
	End     string `json:"end" mapstructure:"end"`
}

type BotSettings struct {
	AutoReply      bool           `json:"autoReply" mapstructure:"autoReply"`
	ShowTyping     bool           `json:"showTyping" mapstructure:"showTyping"`
	MessageDelay   int            `json:"messageDelay" mapstructure:"messageDelay"`
	OperatingHours OperatingHours `json:"operatingHours" mapstructure:"operatingHours"`
}

func DefaultBotConfig() BotConfig {
	return BotConfig{
		BotName:        "Meu Bot",
		CompanyName:    "Minha Empresa",
		WelcomeMessage: "Olá! Como posso ajudá-lo?",
		WebsiteURL:     "https://site.com",
	}
}

func DefaultBotSettings() BotSettings {
	return BotSettings{
		AutoReply:    true,
		ShowTyping:   true,
		MessageDelay: 3,
		OperatingHours: OperatingHours{
			Enabled: false,
		},
	}
}

// BotStatus is the read shape returned for any user, including users with
// no session at all.
type BotStatus struct {
	IsActive    bool        `json:"isActive"`
	IsConnected bool        `json:"isConnected"`
	QRCode      *string     `json:"qrCode"`
	Config      BotConfig   `json:"config"`
	Settings    BotSettings `json:"settings"`
}
