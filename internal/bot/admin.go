package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nexifit/nexifit/internal/store"
)

const adminHelp = "🛠 *Admin commands*\n\n" +
	"ADMIN ADD <number> <name> [days] — authorize a user, optional expiry\n" +
	"ADMIN REMOVE <number> — deactivate a user\n" +
	"ADMIN REACTIVATE <number> — re-enable a user\n" +
	"ADMIN LIST — list all users\n" +
	"ADMIN INFO <number> — show one user\n" +
	"ADMIN ADDTIP <category> | <text> — add a daily tip\n" +
	"ADMIN DELTIP <id> — retire a tip\n" +
	"ADMIN REPORT — your weekly report now\n" +
	"ADMIN HELP — this message"

// handleAdmin dispatches ADMIN-prefixed commands. Returns handled=false
// when the sender is not an admin, so the message falls through to the
// normal flow.
func (b *Bot) handleAdmin(ctx context.Context, from, msg string) (string, bool) {
	isAdmin, err := b.repo.IsAdmin(ctx, from)
	if err != nil {
		slog.Error("admin check failed", "user", from, "error", err)
		return "", false
	}
	if !isAdmin {
		b.audit(ctx, from, "admin_denied", false)
		return "", false
	}

	fields := strings.Fields(msg)
	if len(fields) < 2 {
		return adminHelp, true
	}
	cmd := strings.ToUpper(fields[1])
	args := fields[2:]

	switch cmd {
	case "ADD":
		return b.adminAdd(ctx, args), true
	case "REMOVE":
		return b.adminRemove(ctx, args), true
	case "REACTIVATE":
		return b.adminReactivate(ctx, args), true
	case "LIST":
		return b.adminList(ctx), true
	case "INFO":
		return b.adminInfo(ctx, args), true
	case "ADDTIP":
		rest := ""
		if i := strings.Index(strings.ToUpper(msg), "ADDTIP"); i >= 0 {
			rest = strings.TrimSpace(msg[i+len("ADDTIP"):])
		}
		return b.adminAddTip(ctx, rest), true
	case "DELTIP":
		return b.adminDelTip(ctx, args), true
	case "REPORT":
		report, err := b.reports.Build(ctx, from)
		if err != nil {
			slog.Error("admin report failed", "user", from, "error", err)
			return "Could not build the report right now.", true
		}
		return report, true
	case "HELP":
		return adminHelp, true
	}
	return "Unknown admin command. Send ADMIN HELP for the list.", true
}

func (b *Bot) adminAdd(ctx context.Context, args []string) string {
	if len(args) < 2 {
		return "Usage: ADMIN ADD <number> <name> [days]"
	}
	addr := args[0]
	name := args[1]
	days := 0
	if len(args) >= 3 {
		n, err := strconv.Atoi(args[2])
		if err != nil || n < 0 {
			return "Expiry days must be a non-negative number."
		}
		days = n
	}
	if err := b.repo.AddUser(ctx, addr, name, days); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			return fmt.Sprintf("%s is already registered. Use ADMIN REACTIVATE to re-enable.", addr)
		}
		slog.Error("admin add failed", "target", addr, "error", err)
		return "Could not add the user."
	}
	if days > 0 {
		return fmt.Sprintf("✅ Added *%s* (%s), expires in %d day(s).", name, addr, days)
	}
	return fmt.Sprintf("✅ Added *%s* (%s) with no expiry.", name, addr)
}

func (b *Bot) adminRemove(ctx context.Context, args []string) string {
	if len(args) < 1 {
		return "Usage: ADMIN REMOVE <number>"
	}
	ok, err := b.repo.RemoveUser(ctx, args[0])
	if err != nil {
		slog.Error("admin remove failed", "target", args[0], "error", err)
		return "Could not remove the user."
	}
	if !ok {
		return fmt.Sprintf("No user found for %s.", args[0])
	}
	return fmt.Sprintf("🚫 Deactivated %s.", args[0])
}

func (b *Bot) adminReactivate(ctx context.Context, args []string) string {
	if len(args) < 1 {
		return "Usage: ADMIN REACTIVATE <number>"
	}
	ok, err := b.repo.ReactivateUser(ctx, args[0])
	if err != nil {
		slog.Error("admin reactivate failed", "target", args[0], "error", err)
		return "Could not reactivate the user."
	}
	if !ok {
		return fmt.Sprintf("No user found for %s.", args[0])
	}
	return fmt.Sprintf("✅ Reactivated %s.", args[0])
}

func (b *Bot) adminList(ctx context.Context) string {
	users, err := b.repo.ListUsers(ctx)
	if err != nil {
		slog.Error("admin list failed", "error", err)
		return "Could not list users."
	}
	if len(users) == 0 {
		return "No users registered yet."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 *Users* (%d)\n", len(users))
	for _, u := range users {
		status := "active"
		if !u.Authorized {
			status = "inactive"
		}
		fmt.Fprintf(&sb, "\n• %s — %s (%s)", u.Addr, u.Name, status)
		if u.ExpiresAt != nil {
			fmt.Fprintf(&sb, ", expires %s", u.ExpiresAt.Format("2006-01-02"))
		}
	}
	return sb.String()
}

func (b *Bot) adminInfo(ctx context.Context, args []string) string {
	if len(args) < 1 {
		return "Usage: ADMIN INFO <number>"
	}
	u, err := b.repo.GetUser(ctx, args[0])
	if err != nil {
		slog.Error("admin info failed", "target", args[0], "error", err)
		return "Could not look up the user."
	}
	if u == nil {
		return fmt.Sprintf("No user found for %s.", args[0])
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "👤 *%s*\nNumber: %s\nActive: %t\nAdded: %s",
		u.Name, u.Addr, u.Authorized, u.DateAdded.Format("2006-01-02"))
	if u.ExpiresAt != nil {
		fmt.Fprintf(&sb, "\nExpires: %s", u.ExpiresAt.Format("2006-01-02"))
	}
	if u.Notes != "" {
		fmt.Fprintf(&sb, "\nNotes: %s", u.Notes)
	}
	return sb.String()
}

// adminAddTip expects "<category> | <text>" after the command word.
func (b *Bot) adminAddTip(ctx context.Context, rest string) string {
	category, text, found := strings.Cut(rest, "|")
	if !found {
		return "Usage: ADMIN ADDTIP <category> | <text>"
	}
	category = strings.TrimSpace(category)
	text = strings.TrimSpace(text)
	if category == "" || text == "" {
		return "Usage: ADMIN ADDTIP <category> | <text>"
	}
	id, err := b.repo.AddTip(ctx, text, category)
	if err != nil {
		slog.Error("admin addtip failed", "error", err)
		return "Could not add the tip."
	}
	return fmt.Sprintf("💡 Tip #%d added under *%s*.", id, category)
}

func (b *Bot) adminDelTip(ctx context.Context, args []string) string {
	if len(args) < 1 {
		return "Usage: ADMIN DELTIP <id>"
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return "Tip ID must be a number."
	}
	ok, err := b.repo.DeactivateTip(ctx, id)
	if err != nil {
		slog.Error("admin deltip failed", "tip", id, "error", err)
		return "Could not retire the tip."
	}
	if !ok {
		return fmt.Sprintf("No tip found with ID %d.", id)
	}
	return fmt.Sprintf("🗑 Tip #%d retired.", id)
}
