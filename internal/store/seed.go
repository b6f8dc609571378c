package store

import (
	"fmt"
	"time"
)

// seedTip pairs a tip with its category for first-run seeding.
type seedTip struct {
	text     string
	category string
}

var defaultTips = []seedTip{
	{"Start your day with gratitude. Name three things you're thankful for today. Small moments of appreciation can shift your entire mindset.", "motivation"},
	{"Remember: Progress, not perfection. Every small step forward counts, even on days when you feel you're barely moving.", "motivation"},
	{"Celebrate small wins today. Did you drink water? Take a walk? That's progress worth acknowledging.", "motivation"},
	{"Be patient with yourself. Growth takes time, and setbacks are part of the process, not signs of failure.", "motivation"},
	{"Every expert was once a beginner. Trust the process and keep showing up for yourself.", "motivation"},
	{"Take 5 deep breaths right now. Inhale for 4 counts, hold for 4, exhale for 6. Notice how your body feels after.", "stress"},
	{"When overwhelmed, try the 5-4-3-2-1 technique: Name 5 things you see, 4 you can touch, 3 you hear, 2 you smell, 1 you taste.", "stress"},
	{"Physical exercise is a powerful stress reliever. Even a 10-minute walk can significantly reduce stress hormones.", "stress"},
	{"Write down what's stressing you. Sometimes seeing worries on paper helps you realize they're more manageable than they feel.", "stress"},
	{"Limit caffeine when stressed. While it might feel helpful, it can actually increase anxiety and stress levels.", "stress"},
	{"Take a mindful minute. Close your eyes and focus only on your breath. Let thoughts pass like clouds in the sky.", "mindfulness"},
	{"Eat one meal today without distractions. Notice the flavors, textures, and how your body feels as you eat.", "mindfulness"},
	{"Try a walking meditation today. Focus on each step, the movement of your body, the feeling of your feet touching the ground.", "mindfulness"},
	{"Notice one beautiful thing today. A flower, a smile, a sunset. Let yourself fully experience that moment of beauty.", "mindfulness"},
	{"Your breath is always with you as an anchor to the present moment. When lost in thoughts, return to your breathing.", "mindfulness"},
	{"Aim for 7-9 hours of sleep tonight. Quality sleep is when your body repairs muscles and your mind processes emotions.", "sleep"},
	{"Create a wind-down routine 30 minutes before bed. Dim lights, avoid screens, and signal your body it's time to rest.", "sleep"},
	{"Physical activity helps sleep quality, but avoid intense workouts 3 hours before bed as they can be energizing.", "sleep"},
	{"Consistency matters: Try to wake up and go to bed at the same time every day, even on weekends.", "sleep"},
	{"Recovery isn't lazy. Rest days allow your body and mind to rebuild stronger. Honor your need for recovery.", "sleep"},
	{"Speak to yourself like you would to a good friend. Would you be this harsh to someone you care about?", "positivity"},
	{"Start a gratitude journal. Write 3 good things that happened today, no matter how small.", "positivity"},
	{"Compare yourself only to who you were yesterday. Everyone's journey is different and uniquely their own.", "positivity"},
	{"Perfectionism is a cage. Embrace 'good enough' and free yourself from impossible standards.", "positivity"},
	{"Celebrate your uniqueness. What makes you different is what makes you valuable. You are enough, exactly as you are.", "positivity"},
}

// seedTips populates the tip pool on first run. A non-empty tips table
// is left untouched so admin edits survive restarts.
func (s *SQLiteStore) seedTips() error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tips`).Scan(&count); err != nil {
		return fmt.Errorf("count tips: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	stmt, err := tx.Prepare(`INSERT INTO tips (tip_text, category, active, date_added) VALUES (?, ?, 1, ?)`)
	if err != nil {
		return fmt.Errorf("prepare tip insert: %w", err)
	}
	defer stmt.Close()

	for _, tip := range defaultTips {
		if _, err := stmt.Exec(tip.text, tip.category, now); err != nil {
			return fmt.Errorf("insert seed tip: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}
	return nil
}
