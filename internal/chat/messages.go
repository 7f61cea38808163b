package chat

import (
	"fmt"
	"strings"

	"portfolio-go/internal/model"
)

const (
	connectionTrouble = "Sorry, I'm having trouble connecting. Please try again."
	emptyReply        = "I'm not sure how to respond to that. Can I help you with something else?"
)

func (e *Engine) welcome() string {
	return fmt.Sprintf("Welcome! I'm %s's assistant 🤖\n\n"+
		"How can I help you today?\n"+
		"• Learn about %s's expertise & projects\n"+
		"• Start a project discussion\n"+
		"• Schedule a meeting\n"+
		"• Connect on WhatsApp: %s\n\n"+
		"Feel free to ask anything!", e.opts.OwnerName, e.opts.OwnerName, e.opts.WhatsAppURL)
}

func (e *Engine) intro() string {
	return fmt.Sprintf("Excellent! I'd love to help you start a project with %s. 🚀\n\n"+
		"I'll collect some information to ensure we understand your needs perfectly.", e.opts.OwnerName)
}

func (e *Engine) apology() string {
	return "Oops! Something went wrong. Please try again or email directly at: " + e.opts.FallbackEmail
}

func (e *Engine) confirmation(l model.Lead) string {
	var meeting string
	if WantsMeeting(l.MeetingPreference) {
		meeting = fmt.Sprintf("\n\n📅 %s will reach out on WhatsApp to schedule a meeting within 24 hours.", e.opts.OwnerName)
	} else {
		meeting = fmt.Sprintf("\n\n%s will review your requirements and get back to you via email within 24 hours.", e.opts.OwnerName)
	}

	var b strings.Builder
	b.WriteString("✅ Perfect! I've got all the details:\n\n")
	fmt.Fprintf(&b, "📧 Email: %s\n", l.Email)
	fmt.Fprintf(&b, "📱 WhatsApp: %s\n", l.WhatsApp)
	fmt.Fprintf(&b, "💼 Project: %s\n", Excerpt(l.Requirements))
	fmt.Fprintf(&b, "💰 Budget: %s\n", l.Budget)
	fmt.Fprintf(&b, "⏱️ Timeline: %s%s\n\n", l.Timeline, meeting)
	fmt.Fprintf(&b, "💬 You can also reach %s directly on WhatsApp:\n%s\n\n", e.opts.OwnerName, e.opts.WhatsAppURL)
	b.WriteString("Thank you for reaching out! 🚀")
	return b.String()
}
