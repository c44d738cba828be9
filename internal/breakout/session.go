package breakout

import (
	"time"
)

// IsSessionActive проверяет, идёт ли сейчас торговая сессия. Для
// американской сессии окно выбирается по месяцу (летнее/зимнее время),
// азиатская сессия переходит через полночь.
func (e *Engine) IsSessionActive(session string) bool {
	now := e.now().In(e.loc)
	current := now.Format("15:04")

	switch session {
	case SessionUS:
		cfg := e.cfg.Sessions().US
		if !cfg.Enabled {
			return false
		}
		start, end := cfg.StandardStart, cfg.StandardEnd
		if monthIn(cfg.DaylightMonths, int(now.Month())) {
			start, end = cfg.DaylightStart, cfg.DaylightEnd
		}
		return start <= current && current <= end
	case SessionAsian:
		cfg := e.cfg.Sessions().Asian
		if !cfg.Enabled {
			return false
		}
		if cfg.Start > cfg.End {
			return current >= cfg.Start || current <= cfg.End
		}
		return cfg.Start <= current && current <= cfg.End
	}
	return false
}

// sessionStart возвращает начало текущего вхождения сессии: сегодня в
// стартовое время, либо вчера, если старт ещё впереди.
func (e *Engine) sessionStart(session string) time.Time {
	now := e.now().In(e.loc)

	var startStr string
	switch session {
	case SessionUS:
		cfg := e.cfg.Sessions().US
		startStr = cfg.StandardStart
		if monthIn(cfg.DaylightMonths, int(now.Month())) {
			startStr = cfg.DaylightStart
		}
	case SessionAsian:
		startStr = e.cfg.Sessions().Asian.Start
	default:
		return now
	}

	hour, minute := parseClock(startStr)
	start := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, e.loc)
	if start.After(now) {
		start = start.AddDate(0, 0, -1)
	}
	return start
}

func (e *Engine) sessionLookback(session string) int {
	switch session {
	case SessionUS:
		return e.cfg.Sessions().US.RangeBoxLookback
	case SessionAsian:
		return e.cfg.Sessions().Asian.RangeBoxLookback
	}
	return 0
}

func (e *Engine) sessionEnabled(session string) bool {
	switch session {
	case SessionUS:
		return e.cfg.Sessions().US.Enabled
	case SessionAsian:
		return e.cfg.Sessions().Asian.Enabled
	}
	return false
}

// Sessions перечисляет известные движку сессии.
func (e *Engine) Sessions() []string {
	return []string{SessionUS, SessionAsian}
}

func monthIn(months []int, month int) bool {
	for _, m := range months {
		if m == month {
			return true
		}
	}
	return false
}

func parseClock(s string) (hour, minute int) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0
	}
	return t.Hour(), t.Minute()
}
