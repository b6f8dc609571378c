package bot

import (
	"strings"

	"github.com/nexifit/nexifit/internal/domain"
)

const maxBonusTips = 2

// bonusTips returns up to two profile-matched tips to append to a
// plan. Priority is fixed: gender, then restriction-related condition,
// then injury, then goal.
func bonusTips(p domain.Profile) string {
	var tips []string
	add := func(tip string) {
		if len(tips) < maxBonusTips && tip != "" {
			tips = append(tips, tip)
		}
	}

	add(genderTip(p.Gender))
	add(conditionTip(p.DailyRestrictions))
	add(injuryTip(p.Injury))
	add(goalTip(p.Goal))

	if len(tips) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n\n✨ *Bonus tips for you:*")
	for _, t := range tips {
		sb.WriteString("\n• ")
		sb.WriteString(t)
	}
	return sb.String()
}

func genderTip(gender string) string {
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case "female":
		return "Strength training boosts bone density — don't skip the weights!"
	case "male":
		return "Don't neglect flexibility work; mobility prevents most gym injuries."
	}
	return ""
}

func conditionTip(restrictions string) string {
	lower := strings.ToLower(restrictions)
	switch {
	case strings.Contains(lower, "diabet"):
		return "Check your blood sugar before and after workouts, and keep a fast carb handy."
	case strings.Contains(lower, "vegetarian") || strings.Contains(lower, "vegan"):
		return "Pair legumes with grains to cover your full protein needs on plant-based days."
	case strings.Contains(lower, "busy") || strings.Contains(lower, "no time"):
		return "Short on time? Three 10-minute sessions count just as much as one 30-minute block."
	}
	return ""
}

func injuryTip(injury string) string {
	trimmed := strings.TrimSpace(injury)
	if trimmed == "" || strings.EqualFold(trimmed, "none") {
		return ""
	}
	lower := strings.ToLower(trimmed)
	switch {
	case strings.Contains(lower, "knee"):
		return "Go easy on deep squats and jumps; swimming and cycling are knee-friendly cardio."
	case strings.Contains(lower, "back"):
		return "Keep your core braced on every lift and skip heavy deadlifts until cleared."
	case strings.Contains(lower, "shoulder"):
		return "Avoid overhead presses for now; band pull-aparts help rebuild shoulder stability."
	}
	return "Listen to your body around your injury — stop at pain, not discomfort."
}

func goalTip(goal string) string {
	lower := strings.ToLower(goal)
	switch {
	case strings.Contains(lower, "muscle"):
		return "Aim for 1.6-2g of protein per kg of body weight to fuel muscle growth."
	case strings.Contains(lower, "weight") || strings.Contains(lower, "fat"):
		return "A modest calorie deficit beats a crash diet — consistency wins fat loss."
	case strings.Contains(lower, "cardio"):
		return "Mix one interval session per week into your steady-state cardio for faster gains."
	}
	return "Track your workouts — what gets measured gets improved."
}
