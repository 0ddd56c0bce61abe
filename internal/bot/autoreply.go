package bot

import (
	"fmt"
	"strings"
	"time"

	"zapbot/api/internal/models"
)

var greetings = map[string]struct{}{
	"oi":        {},
	"olá":       {},
	"ola":       {},
	"menu":      {},
	"bom dia":   {},
	"boa tarde": {},
	"boa noite": {},
}

// replyFor is the fixed auto-reply decision table: greeting words produce
// the welcome menu, the digits 1-5 produce canned answers, everything else
// is ignored.
func replyFor(body string, config models.BotConfig) (string, bool) {
	text := strings.ToLower(strings.TrimSpace(body))

	if _, ok := greetings[text]; ok {
		return menuMessage(config), true
	}

	switch text {
	case "1":
		return fmt.Sprintf("A %s oferece soluções completas de atendimento automatizado via WhatsApp. Digite *menu* para ver as opções.", config.CompanyName), true
	case "2":
		return "Entre em contato para conhecer nossos planos e preços. Digite *menu* para voltar.", true
	case "3":
		return "Nosso horário de atendimento é de segunda a sexta, das 9h às 18h.", true
	case "4":
		return fmt.Sprintf("Visite nosso site: %s", config.WebsiteURL), true
	case "5":
		return "Aguarde um momento, um de nossos atendentes irá falar com você.", true
	}

	return "", false
}

func menuMessage(config models.BotConfig) string {
	var b strings.Builder
	b.WriteString(config.WelcomeMessage)
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Eu sou o *%s* da *%s*. Digite o número de uma opção:\n\n", config.BotName, config.CompanyName))
	b.WriteString("*1* - Nossos serviços\n")
	b.WriteString("*2* - Preços e planos\n")
	b.WriteString("*3* - Horário de atendimento\n")
	b.WriteString("*4* - Nosso site\n")
	b.WriteString("*5* - Falar com um atendente")
	return b.String()
}

// withinOperatingHours reports whether now falls inside the configured
// window. Windows crossing midnight (start > end) are supported.
func withinOperatingHours(hours models.OperatingHours, now time.Time) bool {
	if !hours.Enabled {
		return true
	}

	start, err := time.Parse("15:04", hours.Start)
	if err != nil {
		return true
	}
	end, err := time.Parse("15:04", hours.End)
	if err != nil {
		return true
	}

	minutes := now.Hour()*60 + now.Minute()
	startMin := start.Hour()*60 + start.Minute()
	endMin := end.Hour()*60 + end.Minute()

	if startMin <= endMin {
		return minutes >= startMin && minutes < endMin
	}
	return minutes >= startMin || minutes < endMin
}
