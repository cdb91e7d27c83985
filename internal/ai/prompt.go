package ai

import (
	"fmt"
	"strings"
	"time"
)

const schema = `Respond with a single JSON object:
{"main_task":{"text":string,"priority":"low"|"medium"|"high"|"urgent","due_date":"YYYY-MM-DD" or "","assigned_to":string or ""},
 "subtasks":[{"text":string,"priority":"low"|"medium"|"high"|"urgent","estimated_minutes":number}],
 "summary":string,"was_complex":boolean}`

func parsePrompt(now time.Time, users []string) string {
	return fmt.Sprintf(`You turn notes into tasks for a shared household to-do list.
Today is %s (%s). Resolve relative dates against today.
Known people: %s. Only assign a task to one of them when the text names them.
Keep the main task under 500 characters. Split work into at most 10 subtasks only when the
text describes several distinct steps; otherwise return no subtasks.
%s`, now.Format("2006-01-02"), now.Weekday(), userList(users), schema)
}

func enhancePrompt(now time.Time, users []string) string {
	return fmt.Sprintf(`You improve a single to-do item for a shared household list.
Today is %s (%s).
Known people: %s.
Rewrite the task text to be clear and actionable, pick a sensible priority, and break it
into at most 10 concrete subtasks with time estimates between 5 and 480 minutes.
%s`, now.Format("2006-01-02"), now.Weekday(), userList(users), schema)
}

func userList(users []string) string {
	if len(users) == 0 {
		return "none"
	}
	return strings.Join(users, ", ")
}
