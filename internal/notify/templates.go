package notify

import (
	"html/template"
	"strings"
)

const frameStart = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; background: #0A0A0A; color: #FFFFFF; padding: 30px; border: 1px solid #FF073A; border-radius: 10px;">`

// lines 把换行转换成 <br>，其余内容照常转义。
func lines(s string) template.HTML {
	parts := strings.Split(s, "\n")
	for i, p := range parts {
		parts[i] = template.HTMLEscapeString(p)
	}
	return template.HTML(strings.Join(parts, "<br>"))
}

var funcs = template.FuncMap{"lines": lines}

var (
	leadTmpl = template.Must(template.New("lead").Funcs(funcs).Parse(frameStart + `
  <h2 style="color: #FF073A; border-bottom: 2px solid #FF073A; padding-bottom: 10px;">🚀 New Project Inquiry</h2>
  <div style="margin: 20px 0;">
    <p><strong style="color: #FF073A;">Session:</strong> {{.SessionID}}</p>
    <p><strong style="color: #FF073A;">Name:</strong> {{.Lead.Name}}</p>
    <p><strong style="color: #FF073A;">Email:</strong> {{.Lead.Email}}</p>
    <p><strong style="color: #FF073A;">WhatsApp:</strong> {{.Lead.WhatsApp}}</p>
    <p><strong style="color: #FF073A;">Budget:</strong> {{.Lead.Budget}}</p>
    <p><strong style="color: #FF073A;">Timeline:</strong> {{.Lead.Timeline}}</p>
    <p><strong style="color: #FF073A;">Meeting:</strong> {{.Lead.MeetingPreference}}</p>
  </div>
  <div style="background: #111111; padding: 15px; border-radius: 8px; border-left: 3px solid #FF073A;">
    <p style="color: #CCCCCC;">{{lines .Lead.Requirements}}</p>
  </div>
  <p style="font-size: 12px; color: #666; margin-top: 20px;">Project inquiry auto-collected by the portfolio assistant.</p>
</div>`))

	chatTmpl = template.Must(template.New("chat").Funcs(funcs).Parse(frameStart + `
  <h2 style="color: #FF073A; border-bottom: 2px solid #FF073A; padding-bottom: 10px;">🤖 Chatbot Query</h2>
  <div style="margin: 20px 0;">
    <p><strong style="color: #FF073A;">Session:</strong> {{.SessionID}}</p>
  </div>
  <div style="background: #111111; padding: 15px; border-radius: 8px; margin: 10px 0;">
    <p style="color: #FF073A; font-weight: bold;">User:</p>
    <p style="color: #CCCCCC;">{{lines .UserMessage}}</p>
  </div>
  <div style="background: #111111; padding: 15px; border-radius: 8px; margin: 10px 0;">
    <p style="color: #4CAF50; font-weight: bold;">Bot:</p>
    <p style="color: #CCCCCC;">{{lines .BotResponse}}</p>
  </div>
  <p style="font-size: 12px; color: #666; margin-top: 20px;">Automated notification from your portfolio chatbot.</p>
</div>`))

	contactTmpl = template.Must(template.New("contact").Funcs(funcs).Parse(frameStart + `
  <h2 style="color: #FF073A; border-bottom: 2px solid #FF073A; padding-bottom: 10px;">📩 New Contact Message</h2>
  <div style="margin: 20px 0;">
    <p><strong style="color: #FF073A;">Name:</strong> {{.Name}}</p>
    <p><strong style="color: #FF073A;">Email:</strong> {{.Email}}</p>
    <p><strong style="color: #FF073A;">Subject:</strong> {{.Subject}}</p>
  </div>
  <div style="background: #111111; padding: 15px; border-radius: 8px; border-left: 3px solid #FF073A;">
    <p style="color: #CCCCCC;">{{lines .Message}}</p>
  </div>
  <p style="font-size: 12px; color: #666; margin-top: 20px;">Sent from your portfolio website contact form.</p>
</div>`))
)
