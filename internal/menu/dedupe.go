package menu

import (
	"bytes"
	"encoding/json"
	"strings"
)

// contentKey identifies an item on a date regardless of shift. A nil code and
// an empty code are different keys.
func contentKey(item ItemRecord, date string) string {
	var b strings.Builder
	if item.Code != nil {
		b.WriteString("c:")
		b.WriteString(*item.Code)
	} else {
		b.WriteString("n:")
	}
	b.WriteByte(0)
	b.WriteString(date)
	b.WriteByte(0)
	b.WriteString(item.Description)
	return b.String()
}

// Deduplicate keeps the first entry of every (code, date, description, shift)
// combination. An item already seen on the date under another shift is kept
// for the new shift.
func Deduplicate(entries []MenuEntry) []MenuEntry {
	out := make([]MenuEntry, 0, len(entries))
	shifts := map[string]map[ShiftName]struct{}{}
	for _, e := range entries {
		key := contentKey(e.ItemRecord, e.Date)
		present, ok := shifts[key]
		if !ok {
			present = map[ShiftName]struct{}{}
			shifts[key] = present
		}
		if _, dup := present[e.Shift]; dup {
			continue
		}
		present[e.Shift] = struct{}{}
		out = append(out, e)
	}
	return out
}

type ShiftItems struct {
	Shift ShiftName
	Items []ItemRecord
}

type DayMenu struct {
	Date   string
	Shifts []ShiftItems
}

// MenuByDate groups items by date and then by shift in first-seen order.
// It is read-only once built.
type MenuByDate struct {
	days []DayMenu
}

func GroupByDate(entries []MenuEntry) MenuByDate {
	var days []DayMenu
	dayIdx := map[string]int{}
	shiftIdx := map[string]map[ShiftName]int{}
	for _, e := range entries {
		d, ok := dayIdx[e.Date]
		if !ok {
			d = len(days)
			dayIdx[e.Date] = d
			days = append(days, DayMenu{Date: e.Date})
			shiftIdx[e.Date] = map[ShiftName]int{}
		}
		s, ok := shiftIdx[e.Date][e.Shift]
		if !ok {
			s = len(days[d].Shifts)
			shiftIdx[e.Date][e.Shift] = s
			days[d].Shifts = append(days[d].Shifts, ShiftItems{Shift: e.Shift})
		}
		days[d].Shifts[s].Items = append(days[d].Shifts[s].Items, e.ItemRecord)
	}
	return MenuByDate{days: days}
}

func (m MenuByDate) Len() int { return len(m.days) }

func (m MenuByDate) Dates() []string {
	out := make([]string, len(m.days))
	for i, d := range m.days {
		out[i] = d.Date
	}
	return out
}

// Days returns a deep copy of the grouping.
func (m MenuByDate) Days() []DayMenu {
	out := make([]DayMenu, len(m.days))
	for i, d := range m.days {
		shifts := make([]ShiftItems, len(d.Shifts))
		for k, s := range d.Shifts {
			shifts[k] = ShiftItems{Shift: s.Shift, Items: append([]ItemRecord(nil), s.Items...)}
		}
		out[i] = DayMenu{Date: d.Date, Shifts: shifts}
	}
	return out
}

func (m MenuByDate) Items(date string, shift ShiftName) []ItemRecord {
	for _, d := range m.days {
		if d.Date != date {
			continue
		}
		for _, s := range d.Shifts {
			if s.Shift == shift {
				return append([]ItemRecord(nil), s.Items...)
			}
		}
	}
	return nil
}

// MarshalJSON writes {"date": {"shift": [items]}} keeping insertion order,
// which a Go map would lose.
func (m MenuByDate) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range m.days {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, d.Date); err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		for k, s := range d.Shifts {
			if k > 0 {
				buf.WriteByte(',')
			}
			if err := writeKey(&buf, string(s.Shift)); err != nil {
				return nil, err
			}
			items, err := json.Marshal(s.Items)
			if err != nil {
				return nil, err
			}
			buf.Write(items)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, key string) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	return nil
}
