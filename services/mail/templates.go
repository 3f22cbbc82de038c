package mail

import (
	htmlTemplate "html/template"
	textTemplate "text/template"

	"github.com/taskly-app/identity/services/otp"
)

type templateData struct {
	AppName       string
	Code          string
	ExpiryMinutes int
	Heading       string
	Title         string
	Intro         string
	Outro         string
}

type purposeCopy struct {
	subject string
	heading string
	title   string
	intro   string
	outro   string
}

const otpHTMLLayout = `<!DOCTYPE html>
<html>
<head>
<style>
  .container { max-width: 600px; margin: 0 auto; font-family: Arial, sans-serif; }
  .header { background-color: #8b5cf6; color: white; padding: 20px; text-align: center; }
  .content { padding: 30px; background-color: #f9fafb; }
  .otp-box { background-color: #8b5cf6; color: white; padding: 20px; text-align: center; font-size: 32px; font-weight: bold; letter-spacing: 5px; border-radius: 8px; margin: 20px 0; }
  .footer { background-color: #374151; color: #9ca3af; padding: 20px; text-align: center; font-size: 12px; }
</style>
</head>
<body>
<div class="container">
  <div class="header"><h1>{{.Heading}}</h1></div>
  <div class="content">
    <h2>{{.Title}}</h2>
    <p>{{.Intro}}</p>
    <div class="otp-box">{{.Code}}</div>
    <p><strong>This code will expire in {{.ExpiryMinutes}} minutes.</strong></p>
    <p>{{.Outro}}</p>
  </div>
  <div class="footer"><p>&copy; {{.AppName}}. All rights reserved.</p></div>
</div>
</body>
</html>`

const otpTextLayout = `{{.Title}}

{{.Intro}}

Your code: {{.Code}}

This code will expire in {{.ExpiryMinutes}} minutes.

{{.Outro}}
`

const passwordChangedLayout = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background-color: #8b5cf6; color: white; padding: 20px; text-align: center;">
    <h1>Password Changed</h1>
  </div>
  <div style="padding: 30px; background-color: #f9fafb;">
    <p>Your {{.AppName}} account password was just changed.</p>
    <p>If this wasn't you, please reset your password immediately.</p>
  </div>
</body>
</html>`

var (
	otpHTMLTmpl             = htmlTemplate.Must(htmlTemplate.New("otp").Parse(otpHTMLLayout))
	otpTextTmpl             = textTemplate.Must(textTemplate.New("otp").Parse(otpTextLayout))
	passwordChangedTemplate = htmlTemplate.Must(htmlTemplate.New("password_changed").Parse(passwordChangedLayout))
)

func copyForPurpose(purpose otp.Purpose, appName string) purposeCopy {
	switch purpose {
	case otp.PurposeEmailVerification:
		return purposeCopy{
			subject: "Verify Your Email",
			heading: "Welcome to " + appName + "!",
			title:   "Verify Your Email Address",
			intro:   "Thank you for signing up. To complete your registration, please verify your email address using the code below:",
			outro:   "If you didn't create an account, please ignore this email.",
		}
	case otp.PurposeLoginVerification:
		return purposeCopy{
			subject: "Login Verification Code",
			heading: "Login Verification",
			title:   "Verify Your Login",
			intro:   "Someone is trying to sign in to your account. Please use the code below to verify this login attempt:",
			outro:   "If this wasn't you, please secure your account immediately.",
		}
	case otp.PurposePasswordReset:
		return purposeCopy{
			subject: "Password Reset Code",
			heading: "Password Reset",
			title:   "Reset Your Password",
			intro:   "You've requested to reset your account password. Please use the code below to proceed:",
			outro:   "If you didn't request this reset, please ignore this email.",
		}
	default:
		return purposeCopy{
			subject: "Verification Code",
			heading: "Verification",
			title:   "Your Verification Code",
			intro:   "Please use the code below:",
			outro:   "If you didn't request this code, please ignore this email.",
		}
	}
}
