package handlers

import (
	"strconv"
	"strings"

	"github.com/sfms-dev/facility_bot/internal/apperr"
	"github.com/sfms-dev/facility_bot/internal/inventory"
	"github.com/sfms-dev/facility_bot/internal/model"
	"github.com/sfms-dev/facility_bot/internal/progress"
)

const (
	usageCheckin    = "usage: /checkin <facility> [sub] <students> <staff> [note]"
	usageFeedback   = "usage: /feedback <facility> <problems>"
	usageFaculty    = "usage: /faculty <student id>"
	usageAdd        = "usage: /add <item> <qty>"
	usageRemove     = "usage: /remove <item>"
	usageBorrow     = "usage: /borrow <student id> <phone> [faculty]"
	usageReturn     = "usage: /return <student id> <item> <qty> [yyyy-mm-dd]"
	usageItemAdd    = "usage: /item_add <name> <qty>"
	usageItemSet    = "usage: /item_set <id> <stock> [name]"
	usageItemAdjust = "usage: /item_adjust <id> <delta>"
	usageItemDelete = "usage: /item_delete <id>"
)

func usage(text string) error { return apperr.New(apperr.CodeValidation, text) }

// commandArgs splits a command message into its arguments, dropping the
// command itself.
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	return fields[1:]
}

// ParseCheckin reads "<facility> [sub] <students> <staff> [note...]". The sub
// key is present when the second argument is not a number.
func ParseCheckin(args []string) (progress.Intent, error) {
	if len(args) < 3 {
		return progress.Intent{}, usage(usageCheckin)
	}
	in := progress.Intent{Facility: strings.ToLower(args[0])}
	rest := args[1:]
	if _, err := strconv.Atoi(rest[0]); err != nil {
		in.Sub = strings.ToLower(rest[0])
		rest = rest[1:]
	}
	if len(rest) < 2 {
		return progress.Intent{}, usage(usageCheckin)
	}
	students, err1 := strconv.Atoi(rest[0])
	staff, err2 := strconv.Atoi(rest[1])
	if err1 != nil || err2 != nil {
		return progress.Intent{}, usage(usageCheckin)
	}
	in.Counts = model.Counts{Students: students, Staff: staff}
	in.Note = strings.Join(rest[2:], " ")
	return in, nil
}

// ParseFeedback reads "<facility> <problems...>". The problem text may be
// empty; the feedback gate rejects an empty form.
func ParseFeedback(args []string) (string, model.FeedbackPayload, error) {
	if len(args) == 0 {
		return "", model.FeedbackPayload{}, usage(usageFeedback)
	}
	return strings.ToLower(args[0]), model.FeedbackPayload{Problems: strings.Join(args[1:], " ")}, nil
}

// ParseItemQty reads "<item name...> <qty>". Item names may contain spaces.
func ParseItemQty(args []string, usageText string) (string, int, error) {
	if len(args) < 2 {
		return "", 0, usage(usageText)
	}
	qty, err := strconv.Atoi(args[len(args)-1])
	if err != nil {
		return "", 0, usage(usageText)
	}
	return strings.Join(args[:len(args)-1], " "), qty, nil
}

// ParseItemName reads a possibly multi-word item name.
func ParseItemName(args []string, usageText string) (string, error) {
	if len(args) == 0 {
		return "", usage(usageText)
	}
	return strings.Join(args, " "), nil
}

// ParseBorrower reads "<student id> <phone> [faculty...]". With no arguments
// the chat's last borrower is reused.
func ParseBorrower(args []string, prefill model.Borrower, hasPrefill bool) (model.Borrower, error) {
	switch {
	case len(args) == 0 && hasPrefill:
		return prefill, nil
	case len(args) < 2:
		return model.Borrower{}, usage(usageBorrow)
	}
	return model.Borrower{
		StudentID: args[0],
		Phone:     args[1],
		Faculty:   strings.Join(args[2:], " "),
	}, nil
}

// ParseFilter reads up to two optional arguments: a student id and a date,
// in either order.
func ParseFilter(args []string) (model.PendingFilter, error) {
	var f model.PendingFilter
	if len(args) > 2 {
		return f, usage("usage: [student id] [yyyy-mm-dd]")
	}
	for _, a := range args {
		if d, err := model.ParseDay(a); err == nil {
			f.Date = d
			continue
		}
		f.StudentID = a
	}
	return f, nil
}

// ReturnArgs is a parsed /return command. BorrowDate is empty when the user
// left it out.
type ReturnArgs struct {
	StudentID     string
	EquipmentName string
	Qty           int
	BorrowDate    model.Day
}

// ParseReturn reads "<student id> <item...> <qty> [date]".
func ParseReturn(args []string) (ReturnArgs, error) {
	if len(args) < 3 {
		return ReturnArgs{}, usage(usageReturn)
	}
	var r ReturnArgs
	rest := args[1:]
	if d, err := model.ParseDay(rest[len(rest)-1]); err == nil {
		r.BorrowDate = d
		rest = rest[:len(rest)-1]
	}
	name, qty, err := ParseItemQty(rest, usageReturn)
	if err != nil {
		return ReturnArgs{}, err
	}
	r.StudentID, r.EquipmentName, r.Qty = args[0], name, qty
	return r, nil
}

// ResolveReturn picks the pending row a /return refers to. Without a date the
// student must have exactly one pending borrow of the item.
func ResolveReturn(rows []model.PendingReturn, r ReturnArgs) (model.PendingKey, error) {
	var matches []model.PendingReturn
	sid := inventory.Digits(r.StudentID)
	for _, p := range rows {
		if p.StudentID != sid {
			continue
		}
		if inventory.NameKey(p.EquipmentName) != inventory.NameKey(r.EquipmentName) {
			continue
		}
		if r.BorrowDate != "" && p.BorrowDate != r.BorrowDate {
			continue
		}
		matches = append(matches, p)
	}
	switch len(matches) {
	case 0:
		if r.BorrowDate != "" {
			return model.PendingKey{StudentID: sid, EquipmentName: r.EquipmentName, BorrowDate: r.BorrowDate}, nil
		}
		return model.PendingKey{}, apperr.WithMetadata(apperr.CodeNotFound, "no pending return for "+r.EquipmentName,
			map[string]string{"item": r.EquipmentName})
	case 1:
		return matches[0].Key(), nil
	default:
		dates := make([]string, 0, len(matches))
		for _, m := range matches {
			dates = append(dates, m.BorrowDate.String())
		}
		return model.PendingKey{}, apperr.New(apperr.CodeValidation,
			"several borrows of "+r.EquipmentName+" are pending, add the borrow date: "+strings.Join(dates, ", "))
	}
}

// ParseItemSet reads "<id> <stock> [name...]".
func ParseItemSet(args []string) (int64, int, string, error) {
	if len(args) < 2 {
		return 0, 0, "", usage(usageItemSet)
	}
	id, err1 := strconv.ParseInt(args[0], 10, 64)
	stock, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		return 0, 0, "", usage(usageItemSet)
	}
	return id, stock, strings.Join(args[2:], " "), nil
}

// ParseItemAdjust reads "<id> <delta>"; delta may be negative.
func ParseItemAdjust(args []string) (int64, int, error) {
	if len(args) != 2 {
		return 0, 0, usage(usageItemAdjust)
	}
	id, err1 := strconv.ParseInt(args[0], 10, 64)
	delta, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		return 0, 0, usage(usageItemAdjust)
	}
	return id, delta, nil
}

// ParseID reads a single numeric item id.
func ParseID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, usage(usageItemDelete)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, usage(usageItemDelete)
	}
	return id, nil
}

// IsCommand reports whether text invokes /name, optionally addressed as
// /name@botname, followed by nothing or whitespace.
func IsCommand(text, name string) bool {
	cmd, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	if i := strings.IndexAny(cmd, "\n\t"); i >= 0 {
		cmd = cmd[:i]
	}
	cmd, _, _ = strings.Cut(cmd, "@")
	return cmd == "/"+name
}
