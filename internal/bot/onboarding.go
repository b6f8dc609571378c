package bot

import (
	"fmt"
	"strings"

	"github.com/nexifit/nexifit/internal/domain"
)

// splitFields breaks a comma-separated onboarding answer into up to n
// trimmed fields. Missing positions come back empty; the flow keeps
// moving regardless of how much the user actually provided.
func splitFields(msg string, n int) []string {
	parts := strings.SplitN(msg, ",", n)
	out := make([]string, n)
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

func (b *Bot) stepBasic(s *domain.Session, msg string) turn {
	f := splitFields(msg, 3)
	s.Profile.Name = f[0]
	s.Profile.Age = f[1]
	s.Profile.Gender = f[2]
	s.Advance(domain.StepRestrictions)

	reply := fmt.Sprintf("Nice to meet you, *%s*! 🙌\n\n"+
		"📋 Got it:\n• Name: %s\n• Age: %s\n• Gender: %s\n\n"+
		"Now, do you have any *dietary restrictions or daily limitations* I should know about?\n"+
		"(e.g. vegetarian, diabetic, busy mornings — or just say 'none')",
		f[0], f[0], f[1], f[2])
	return turn{replies: []string{reply}}
}

func (b *Bot) stepRestrictions(s *domain.Session, msg string) turn {
	s.Profile.DailyRestrictions = msg
	s.Advance(domain.StepPersonalize)

	reply := "Noted! 📝\n\n" +
		"Last step — want a *personalized plan*? Share your details like this:\n\n" +
		"👉 *Weight (kg) , Height (cm) , Goal , Injuries*\n\n" +
		"Example: 70 , 175 , muscle gain , knee pain\n\n" +
		"Or reply *No* for a general plan."
	return turn{replies: []string{reply}}
}

func (b *Bot) stepPersonalize(s *domain.Session, msg string) turn {
	if strings.EqualFold(strings.TrimSpace(msg), "no") {
		s.Advance(domain.StepDone)
		s.Append(domain.RoleUser, "Give me a general fitness plan to get started.")
		return turn{
			replies:  []string{"👍 No problem! Putting together a general plan for you now..."},
			generate: true,
		}
	}

	f := splitFields(msg, 4)
	s.Profile.Weight = f[0]
	s.Profile.Height = f[1]
	s.Profile.Goal = f[2]
	s.Profile.Injury = f[3]
	if s.Profile.Injury == "" {
		s.Profile.Injury = "None"
	}
	s.Advance(domain.StepDone)
	s.Append(domain.RoleUser, "Give me a personalized fitness plan based on my profile.")

	reply := fmt.Sprintf("🎯 Perfect! Here's what I have:\n"+
		"• Weight: %s kg\n• Height: %s cm\n• Goal: %s\n• Injuries: %s\n\n"+
		"Building your personalized plan now... 💪",
		s.Profile.Weight, s.Profile.Height, s.Profile.Goal, s.Profile.Injury)
	return turn{replies: []string{reply}, generate: true}
}
