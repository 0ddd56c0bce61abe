package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"zapbot/api/internal/models"
)

func TestReplyFor_GreetingsProduceMenu(t *testing.T) {
	t.Parallel()
	config := models.DefaultBotConfig()

	for _, input := range []string{"oi", "Olá", "OLA", "  menu  ", "Bom Dia", "boa tarde", "boa noite"} {
		reply, ok := replyFor(input, config)
		require.True(t, ok, "input %q should be answered", input)
		require.Contains(t, reply, config.WelcomeMessage)
		require.Contains(t, reply, config.BotName)
		require.Contains(t, reply, config.CompanyName)
		require.Contains(t, reply, "*1*")
		require.Contains(t, reply, "*5*")
	}
}

func TestReplyFor_MenuOptions(t *testing.T) {
	t.Parallel()
	config := models.BotConfig{
		BotName:        "Atendente",
		CompanyName:    "Padaria Central",
		WelcomeMessage: "Bem-vindo!",
		WebsiteURL:     "https://padaria.example",
	}

	services, ok := replyFor("1", config)
	require.True(t, ok)
	require.Contains(t, services, "Padaria Central")

	site, ok := replyFor(" 4 ", config)
	require.True(t, ok)
	require.Contains(t, site, "https://padaria.example")

	human, ok := replyFor("5", config)
	require.True(t, ok)
	require.Contains(t, human, "atendentes")
}

func TestReplyFor_IgnoresEverythingElse(t *testing.T) {
	t.Parallel()
	config := models.DefaultBotConfig()

	for _, input := range []string{"", "6", "0", "quero comprar", "oi tudo bem"} {
		_, ok := replyFor(input, config)
		require.False(t, ok, "input %q should be ignored", input)
	}
}

func TestWithinOperatingHours(t *testing.T) {
	t.Parallel()

	at := func(hhmm string) time.Time {
		parsed, err := time.Parse("15:04", hhmm)
		require.NoError(t, err)
		return parsed
	}

	disabled := models.OperatingHours{Enabled: false}
	require.True(t, withinOperatingHours(disabled, at("03:00")))

	dayWindow := models.OperatingHours{Enabled: true, Start: "09:00", End: "18:00"}
	require.True(t, withinOperatingHours(dayWindow, at("09:00")))
	require.True(t, withinOperatingHours(dayWindow, at("17:59")))
	require.False(t, withinOperatingHours(dayWindow, at("18:00")))
	require.False(t, withinOperatingHours(dayWindow, at("08:59")))

	// Overnight window, e.g. a support desk running into the early hours.
	nightWindow := models.OperatingHours{Enabled: true, Start: "22:00", End: "02:00"}
	require.True(t, withinOperatingHours(nightWindow, at("23:30")))
	require.True(t, withinOperatingHours(nightWindow, at("01:59")))
	require.False(t, withinOperatingHours(nightWindow, at("02:00")))
	require.False(t, withinOperatingHours(nightWindow, at("12:00")))

	// Malformed configuration fails open.
	broken := models.OperatingHours{Enabled: true, Start: "not-a-time", End: "18:00"}
	require.True(t, withinOperatingHours(broken, at("03:00")))
}
