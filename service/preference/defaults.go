package preference

// Namespaces used by the email assistant domain.
var (
	NamespaceTriage   = Namespace{"email_assistant", "triage_preferences"}
	NamespaceResponse = Namespace{"email_assistant", "response_preferences"}
	NamespaceCalendar = Namespace{"email_assistant", "cal_preferences"}
)

// DefaultResponsePreferences is the starting response profile.
const DefaultResponsePreferences = `
Use professional and concise language. If the e-mail mentions a deadline, make sure to
explicitly acknowledge and reference the deadline in your response.

When responding to technical questions that require investigation:
- Clearly state whether you will investigate or who you will ask
- Provide an estimated timeline for when you'll have more information or complete the task

When responding to meeting scheduling requests:
- If times are proposed, verify calendar availability for the slots mentioned and commit
  to one of them, or say you can't make it at the time proposed.
- If no times are proposed, check your calendar and propose multiple options.
- Mention the meeting duration in your response to confirm you've noted it correctly.
- Reference the meeting's purpose in your response.
`

// DefaultCalendarPreferences is the starting calendar profile.
const DefaultCalendarPreferences = `
30 minute meetings are preferred, but 15 minute meetings are also acceptable.
`

// DefaultTriagePreferences is the starting triage profile.
const DefaultTriagePreferences = `
Emails that are not worth responding to:
- Marketing newsletters and promotional emails
- Spam or suspicious emails
- CC'd on FYI threads with no direct questions

Emails to notify about without responding:
- Team member out sick or on vacation
- Build system notifications or deployments
- Project status updates without action items
- Important company announcements

Emails that are worth responding to:
- Direct questions from team members requiring expertise
- Meeting requests requiring confirmation
- Critical bug reports related to team's projects
- Requests from management requiring acknowledgment
- Client inquiries about project status or features
`
