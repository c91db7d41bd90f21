package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/davidromeor/telegram-agenda-bot/internal/core/domain"
	"github.com/davidromeor/telegram-agenda-bot/internal/normalize"
	"github.com/davidromeor/telegram-agenda-bot/internal/platform/worker"
)

// User-facing texts.
const (
	welcomeText  = "👋🎉 ¡%s, bienvenido(a) a nuestro selecto grupo %s! 🎉👋\nAquí encontrarás la agenda deportiva y las novedades del catálogo cada día."
	farewellText = "👋 Chao %s, ¡hasta pronto!"

	nightStartText = "🌙 Modo nocturno activado. El grupo descansa hasta las %02d:00. ¡Buenas noches! 😴"
	dayStartText   = "☀️ ¡Buenos días! El grupo vuelve a estar activo."
	nightHushText  = "🌙 %s, el grupo está en modo nocturno. Podrás escribir de nuevo por la mañana."

	helpText = "Soy el bot de la agenda. Comandos disponibles:\n/agenda — agenda deportiva del día\n/catalogo — novedades del catálogo"

	adminOnlyText   = "Solo los administradores pueden lanzar esta acción aquí."
	triggeredText   = "🔄 Revisando la fuente, te aviso si hay novedades."
	previewFailText = "No se pudo obtener la información ahora mismo. Inténtalo más tarde."
	helpRelayText   = "He avisado a los administradores para que te atiendan. 🙌"
	helpNoticeText  = "ℹ️ %s pide ayuda en privado."
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	command := strings.ToLower(msg.Command())

	logger := b.logger.With().
		Str(logFieldCommand, command).
		Int64(logFieldChatID, msg.Chat.ID).
		Logger()

	switch command {
	case "start", "ayuda", "help":
		b.sendText(msg.Chat.ID, helpText)

		return
	}

	run, ok := b.runners[command]
	if !ok {
		logger.Debug().Msg("unknown command ignored")

		return
	}

	if msg.Chat.IsPrivate() {
		// Private requests get a throwaway rendering of the current
		// content; shared diff state stays untouched.
		go func() {
			defer worker.RecoverPanic(b.logger, "preview "+command)

			if err := run.Preview(ctx, domain.Destination{ChatID: msg.Chat.ID}); err != nil {
				logger.Error().Err(err).Msg("preview failed")
				b.sendText(msg.Chat.ID, previewFailText)
			}
		}()

		return
	}

	if msg.From == nil || !b.isAdmin(msg.From.ID) {
		b.sendText(msg.Chat.ID, adminOnlyText)

		return
	}

	b.sendText(msg.Chat.ID, triggeredText)

	go func() {
		defer worker.RecoverPanic(b.logger, "run "+command)

		if _, err := run.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("triggered run failed")
		}
	}()
}

// handlePrivate answers plain private messages with a greeting and, when
// the user asks for help, loops the admins in.
func (b *Bot) handlePrivate(msg *tgbotapi.Message, now time.Time) {
	name := displayName(msg.From)
	reply := fmt.Sprintf("%s, %s 👋. %s", greetingFor(now), name, helpText)

	if strings.Contains(normalize.Fold(msg.Text), "ayuda") {
		reply += "\n" + helpRelayText

		for _, adminID := range b.cfg.AdminIDs {
			b.sendText(adminID, fmt.Sprintf(helpNoticeText, describeUser(msg.From)))
		}
	}

	b.sendText(msg.Chat.ID, reply)
}

func (b *Bot) welcome(msg *tgbotapi.Message) {
	for i := range msg.NewChatMembers {
		member := msg.NewChatMembers[i]
		if member.IsBot {
			continue
		}

		b.sendText(msg.Chat.ID, fmt.Sprintf(welcomeText, displayName(&member), msg.Chat.Title))
	}
}

func (b *Bot) farewell(msg *tgbotapi.Message) {
	if msg.LeftChatMember.IsBot {
		return
	}

	b.sendText(msg.Chat.ID, fmt.Sprintf(farewellText, displayName(msg.LeftChatMember)))
}

// enforceNight mutes non-admin members who write inside the night window
// until the window closes.
func (b *Bot) enforceNight(msg *tgbotapi.Message, now time.Time) {
	if !b.night.Active(now) || msg.From == nil || msg.From.IsBot || b.isAdmin(msg.From.ID) {
		return
	}

	until := b.night.RestrictedUntil(now)

	restrict := tgbotapi.RestrictChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: msg.Chat.ID,
			UserID: msg.From.ID,
		},
		UntilDate: until.Unix(),
		Permissions: &tgbotapi.ChatPermissions{
			CanSendMessages: false,
		},
	}

	if _, err := b.api.Request(restrict); err != nil {
		b.logger.Error().Err(err).
			Int64(logFieldChatID, msg.Chat.ID).
			Int64(logFieldUserID, msg.From.ID).
			Msg("cannot restrict member during night mode")

		return
	}

	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(msg.Chat.ID, msg.MessageID)); err != nil {
		b.logger.Debug().Err(err).Int64(logFieldChatID, msg.Chat.ID).Msg("cannot delete night message")
	}

	b.sendText(msg.Chat.ID, fmt.Sprintf(nightHushText, displayName(msg.From)))
}

func greetingFor(now time.Time) string {
	switch hour := now.Hour(); {
	case hour < 12:
		return "Buenos días"
	case hour < 21:
		return "Buenas tardes"
	default:
		return "Buenas noches"
	}
}

func displayName(user *tgbotapi.User) string {
	if user == nil {
		return "amigo(a)"
	}

	if user.FirstName != "" {
		return user.FirstName
	}

	if user.UserName != "" {
		return user.UserName
	}

	return "amigo(a)"
}

func describeUser(user *tgbotapi.User) string {
	if user == nil {
		return "alguien"
	}

	if user.UserName != "" {
		return fmt.Sprintf("%s (@%s)", displayName(user), user.UserName)
	}

	return displayName(user)
}
