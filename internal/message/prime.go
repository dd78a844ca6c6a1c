package message

import (
	"fmt"
	"os"
	"path/filepath"
)

// TelegramPrimeWelcome is the chat-side prime welcome catalog. Bodies are
// Telegram HTML (no escaping surprises, unlike MarkdownV2).
func TelegramPrimeWelcome() Catalog {
	return Catalog{
		English: Template{
			Text: chatWelcomeEN,
			Buttons: []Button{
				{Label: "🚀 Open PNPtv! App", URL: appURL},
				{Label: "💬 Need Help? /help", Data: "help_menu"},
			},
		},
		Spanish: Template{
			Text: chatWelcomeES,
			Buttons: []Button{
				{Label: "🚀 Abrir PNPtv! App", URL: appURL},
				{Label: "💬 ¿Ayuda? /help", Data: "help_menu"},
			},
		},
	}
}

// EmailPrimeWelcome builds the email-side catalog. The HTML bodies live as
// files under dir (prime-welcome.html, prime-welcome-es.html); a missing or
// unreadable file is an error, not a silent plain-text-only send.
func EmailPrimeWelcome(dir string) (Catalog, error) {
	htmlEN, err := loadHTML(dir, "prime-welcome.html")
	if err != nil {
		return Catalog{}, err
	}
	htmlES, err := loadHTML(dir, "prime-welcome-es.html")
	if err != nil {
		return Catalog{}, err
	}
	return Catalog{
		English: Template{
			Subject: "Your PNPtv! PRIME Account is Ready",
			Text:    mailWelcomeEN,
			HTML:    htmlEN,
		},
		Spanish: Template{
			Subject: "Tu Cuenta PRIME en PNPtv! Esta Lista",
			Text:    mailWelcomeES,
			HTML:    htmlES,
		},
	}, nil
}

func loadHTML(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("email template %s: %w", path, err)
	}
	return string(b), nil
}

const appURL = "https://pnptv.app"

const chatWelcomeEN = `🎬 <b>Your PNPtv! PRIME Account is Ready</b>

Welcome to <b>PNPtv!</b> — the private community platform built by and for the queer PNP community. Your PRIME membership is now active and all features are unlocked.

<b>What is PNPtv!?</b>
Your all-in-one platform for PNP content, live video rooms, raw podcasts, and real community connections. A private social network where you can watch, chat, discover people nearby, and connect — all in one place.

🎬 <b>PRIME Content</b> — Exclusive video library with curated PNP content
🔴 <b>Live Video Rooms</b> — Join or host live video sessions in real time
👥 <b>Hangout Groups</b> — Group chats with video call support
📍 <b>Nearby Discovery</b> — Find community members near you
💬 <b>Social Feed</b> — Post, like, comment &amp; share with the community
✉️ <b>Direct Messages</b> — Private messaging with any member

<b>Getting Started:</b>

1️⃣ Send /start to this bot to begin
2️⃣ Complete onboarding (age, guidelines, profile) — takes 2 min
3️⃣ Tap <b>"Open App"</b> below or visit <a href="https://pnptv.app">pnptv.app</a>
4️⃣ Explore PRIME content, hangouts, live rooms &amp; more!

<b>Your PRIME Perks:</b>
✅ Full access to the exclusive PRIME video library
✅ Create and join Hangout groups with video calls
✅ Host and watch live video streams
✅ Nearby discovery — find members in your area
✅ Post, like, comment &amp; share on the Social Feed
✅ Direct messaging with any community member
✅ Priority support

Need help? Type /help anytime or email support@pnptv.app`

const chatWelcomeES = `🎬 <b>Tu Cuenta PRIME en PNPtv! Está Lista</b>

Bienvenido a <b>PNPtv!</b> — la plataforma privada de comunidad creada por y para la comunidad queer PNP. Tu membresía PRIME está activa y todas las funciones están desbloqueadas.

<b>¿Qué es PNPtv!?</b>
Tu plataforma todo-en-uno para contenido PNP, salas de video en vivo, podcasts crudos y conexiones reales con la comunidad. Una red social privada donde puedes ver, chatear, descubrir gente cerca y conectar — todo en un solo lugar.

🎬 <b>Contenido PRIME</b> — Biblioteca exclusiva de videos PNP curados
🔴 <b>Salas de Video en Vivo</b> — Únete o crea sesiones en tiempo real
👥 <b>Grupos de Hangout</b> — Chats grupales con videollamada
📍 <b>Descubre Gente Cerca</b> — Encuentra miembros cerca de ti
💬 <b>Feed Social</b> — Publica, dale like, comenta y comparte
✉️ <b>Mensajes Directos</b> — Mensajes privados con cualquier miembro

<b>Cómo Empezar:</b>

1️⃣ Envía /start a este bot para comenzar
2️⃣ Completa el registro (edad, normas, perfil) — toma 2 min
3️⃣ Toca <b>"Abrir App"</b> abajo o visita <a href="https://pnptv.app">pnptv.app</a>
4️⃣ Explora contenido PRIME, hangouts, salas en vivo y más!

<b>Tus Beneficios PRIME:</b>
✅ Acceso completo a la biblioteca exclusiva de videos PRIME
✅ Crea y únete a grupos de Hangout con videollamadas
✅ Transmite y mira streams de video en vivo
✅ Descubre gente cerca — encuentra miembros en tu zona
✅ Publica, dale like, comenta y comparte en el Feed Social
✅ Mensajes directos con cualquier miembro de la comunidad
✅ Soporte prioritario

¿Necesitas ayuda? Escribe /help en cualquier momento o envía un correo a support@pnptv.app`

const mailWelcomeEN = `Your PNPtv! PRIME Account is Ready

Welcome to PNPtv! Your PRIME membership is now active.

Getting Started:
1. Open Telegram and search for @PNPLatinoTV_bot
2. Send /start and complete onboarding
3. Tap "Open App" or visit https://pnptv.app
4. Explore PRIME content, live rooms, hangouts & more

Need help? Email support@pnptv.app or type /help in the bot.
`

const mailWelcomeES = `Tu Cuenta PRIME en PNPtv! Esta Lista

Bienvenido a PNPtv! Tu membresia PRIME esta activa.

Como Empezar:
1. Abre Telegram y busca @PNPLatinoTV_bot
2. Envia /start y completa el registro
3. Toca "Abrir App" o visita https://pnptv.app
4. Explora contenido PRIME, salas en vivo, hangouts y mas

Necesitas ayuda? Escribe a support@pnptv.app o envia /help al bot.
`
