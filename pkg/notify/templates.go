package notify

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

// Email tags. They feed Postmark analytics, DevSender filenames, and the
// notification log's dedup keys.
const (
	TagTrialEnding    = "trial_ending"
	TagTrialExpired   = "trial_expired"
	TagPaymentFailed  = "payment_failed"
	TagPlanChanged    = "plan_changed"
	TagTrialConverted = "trial_converted"
)

// All templates share the same table layout so they render consistently
// across email clients. Inline styles only; email clients strip <style>.
const (
	layoutHeader = `<!DOCTYPE html>
<html lang="es">
<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"></head>
<body style="margin:0;padding:0;background-color:#f4f7f6;font-family:Helvetica,Arial,sans-serif;">
<table role="presentation" width="100%" cellpadding="0" cellspacing="0" style="background-color:#f4f7f6;padding:24px 0;">
<tr><td align="center">
<table role="presentation" width="560" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;overflow:hidden;">
<tr><td style="background-color:#75a99c;padding:20px 32px;">
<span style="color:#ffffff;font-size:20px;font-weight:bold;">Vetify</span>
</td></tr>
<tr><td style="padding:32px;color:#333333;font-size:15px;line-height:1.6;">`

	layoutFooter = `</td></tr>
<tr><td style="padding:20px 32px;border-top:1px solid #e8ecea;color:#8a9491;font-size:12px;line-height:1.5;">
Vetify &middot; Software para cl&iacute;nicas veterinarias &middot; <a href="https://vetify.pro" style="color:#75a99c;">vetify.pro</a><br>
Recibes este correo porque administras una cl&iacute;nica en Vetify.
</td></tr>
</table>
</td></tr>
</table>
</body>
</html>`
)

func parseEmail(name, content string) *template.Template {
	return template.Must(template.New(name).Parse(layoutHeader + content + layoutFooter))
}

var (
	trialEndingTmpl = parseEmail(TagTrialEnding, `
<h2 style="margin:0 0 16px;font-size:18px;color:#2d3a36;">Tu prueba gratuita termina {{.When}}</h2>
<p>Hola {{.ClinicName}},</p>
<p>Tu periodo de prueba del plan <strong>{{.PlanName}}</strong> termina el <strong>{{.EndsOn}}</strong>.
Para seguir usando la agenda, los expedientes y todas las funciones de tu cl&iacute;nica sin interrupciones,
elige un plan antes de esa fecha.</p>
<p style="margin:24px 0;">
<a href="{{.BillingURL}}" style="background-color:#75a99c;color:#ffffff;text-decoration:none;padding:12px 24px;border-radius:6px;display:inline-block;font-weight:bold;">Elegir mi plan</a>
</p>
<p>Si tienes dudas sobre qu&eacute; plan conviene a tu cl&iacute;nica, responde este correo y te ayudamos.</p>`)

	trialExpiredTmpl = parseEmail(TagTrialExpired, `
<h2 style="margin:0 0 16px;font-size:18px;color:#2d3a36;">Tu prueba gratuita ha terminado</h2>
<p>Hola {{.ClinicName}},</p>
<p>El periodo de prueba del plan <strong>{{.PlanName}}</strong> termin&oacute;. Tu informaci&oacute;n sigue
guardada y segura, pero el acceso de tu equipo queda limitado hasta que actives una suscripci&oacute;n.</p>
<p style="margin:24px 0;">
<a href="{{.BillingURL}}" style="background-color:#75a99c;color:#ffffff;text-decoration:none;padding:12px 24px;border-radius:6px;display:inline-block;font-weight:bold;">Activar suscripci&oacute;n</a>
</p>
<p>Reactivar toma menos de un minuto y tu cl&iacute;nica contin&uacute;a justo donde la dejaste.</p>`)

	paymentFailedTmpl = parseEmail(TagPaymentFailed, `
<h2 style="margin:0 0 16px;font-size:18px;color:#b3564a;">No pudimos procesar tu pago</h2>
<p>Hola {{.ClinicName}},</p>
<p>El cobro de tu plan <strong>{{.PlanName}}</strong> fue rechazado. Intentaremos de nuevo
autom&aacute;ticamente, pero te recomendamos revisar tu m&eacute;todo de pago para evitar
la suspensi&oacute;n del servicio.</p>
<p style="margin:24px 0;">
<a href="{{.BillingURL}}" style="background-color:#75a99c;color:#ffffff;text-decoration:none;padding:12px 24px;border-radius:6px;display:inline-block;font-weight:bold;">Actualizar m&eacute;todo de pago</a>
</p>
<p>Si el problema persiste, responde este correo y lo resolvemos contigo.</p>`)

	planChangedTmpl = parseEmail(TagPlanChanged, `
<h2 style="margin:0 0 16px;font-size:18px;color:#2d3a36;">Tu plan ha cambiado</h2>
<p>Hola {{.ClinicName}},</p>
<p>Tu suscripci&oacute;n cambi&oacute; del plan <strong>{{.FromPlan}}</strong> al plan
<strong>{{.ToPlan}}</strong>. Los nuevos l&iacute;mites y funciones ya est&aacute;n activos
para todo tu equipo.</p>
<p style="margin:24px 0;">
<a href="{{.BillingURL}}" style="background-color:#75a99c;color:#ffffff;text-decoration:none;padding:12px 24px;border-radius:6px;display:inline-block;font-weight:bold;">Ver mi suscripci&oacute;n</a>
</p>`)

	trialConvertedTmpl = parseEmail(TagTrialConverted, `
<h2 style="margin:0 0 16px;font-size:18px;color:#2d3a36;">&iexcl;Bienvenido a Vetify!</h2>
<p>Hola {{.ClinicName}},</p>
<p>Tu suscripci&oacute;n al plan <strong>{{.PlanName}}</strong> qued&oacute; activa. Gracias por
confiar en Vetify para administrar tu cl&iacute;nica.</p>
<p style="margin:24px 0;">
<a href="{{.BillingURL}}" style="background-color:#75a99c;color:#ffffff;text-decoration:none;padding:12px 24px;border-radius:6px;display:inline-block;font-weight:bold;">Ir a mi panel</a>
</p>
<p>Tu factura y los detalles del plan est&aacute;n disponibles en la secci&oacute;n de suscripci&oacute;n.</p>`)
)

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// spanishDate formats a date the way the emails spell it out, e.g.
// "3 de septiembre de 2026".
func spanishDate(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), spanishMonths[t.Month()-1], t.Year())
}

// whenPhrase turns a day count into the phrase used in subjects and
// headings.
func whenPhrase(days int) string {
	switch {
	case days <= 0:
		return "hoy"
	case days == 1:
		return "mañana"
	default:
		return fmt.Sprintf("en %d días", days)
	}
}

func render(tmpl *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render email template %s: %w", tmpl.Name(), err)
	}
	return sb.String(), nil
}

// BuildTrialEnding renders the reminder sent while a trial is in its
// final days. Days counts whole days until endsAt.
func BuildTrialEnding(clinicName, planName string, endsAt time.Time, days int, billingURL string) (SendEmailParams, error) {
	body, err := render(trialEndingTmpl, struct {
		ClinicName, PlanName, When, EndsOn string
		BillingURL                         string
	}{clinicName, planName, whenPhrase(days), spanishDate(endsAt), billingURL})
	if err != nil {
		return SendEmailParams{}, err
	}
	return SendEmailParams{
		Subject:  fmt.Sprintf("Tu prueba de Vetify termina %s", whenPhrase(days)),
		BodyHTML: body,
		Tag:      TagTrialEnding,
	}, nil
}

// BuildTrialExpired renders the notice sent after a trial lapsed without
// converting.
func BuildTrialExpired(clinicName, planName, billingURL string) (SendEmailParams, error) {
	body, err := render(trialExpiredTmpl, struct {
		ClinicName, PlanName, BillingURL string
	}{clinicName, planName, billingURL})
	if err != nil {
		return SendEmailParams{}, err
	}
	return SendEmailParams{
		Subject:  "Tu prueba de Vetify ha terminado",
		BodyHTML: body,
		Tag:      TagTrialExpired,
	}, nil
}

// BuildPaymentFailed renders the dunning notice for a rejected charge.
func BuildPaymentFailed(clinicName, planName, billingURL string) (SendEmailParams, error) {
	body, err := render(paymentFailedTmpl, struct {
		ClinicName, PlanName, BillingURL string
	}{clinicName, planName, billingURL})
	if err != nil {
		return SendEmailParams{}, err
	}
	return SendEmailParams{
		Subject:  "No pudimos procesar tu pago de Vetify",
		BodyHTML: body,
		Tag:      TagPaymentFailed,
	}, nil
}

// BuildPlanChanged renders the confirmation sent after a plan switch.
func BuildPlanChanged(clinicName, fromPlan, toPlan, billingURL string) (SendEmailParams, error) {
	body, err := render(planChangedTmpl, struct {
		ClinicName, FromPlan, ToPlan, BillingURL string
	}{clinicName, fromPlan, toPlan, billingURL})
	if err != nil {
		return SendEmailParams{}, err
	}
	return SendEmailParams{
		Subject:  fmt.Sprintf("Tu plan de Vetify ahora es %s", toPlan),
		BodyHTML: body,
		Tag:      TagPlanChanged,
	}, nil
}

// BuildTrialConverted renders the welcome sent when a trial becomes a
// paid subscription.
func BuildTrialConverted(clinicName, planName, billingURL string) (SendEmailParams, error) {
	body, err := render(trialConvertedTmpl, struct {
		ClinicName, PlanName, BillingURL string
	}{clinicName, planName, billingURL})
	if err != nil {
		return SendEmailParams{}, err
	}
	return SendEmailParams{
		Subject:  fmt.Sprintf("Tu suscripción %s de Vetify está activa", planName),
		BodyHTML: body,
		Tag:      TagTrialConverted,
	}, nil
}
