package trader

import (
	"time"
)

// Соответствие человекочитаемых смещений зонам базы tzdata. Знак в
// именах Etc/GMT обратный смещению UTC.
var utcOffsetZones = map[string]string{
	"UTC-12": "Etc/GMT+12",
	"UTC-11": "Etc/GMT+11",
	"UTC-10": "Etc/GMT+10",
	"UTC-9":  "Etc/GMT+9",
	"UTC-8":  "Etc/GMT+8",
	"UTC-7":  "Etc/GMT+7",
	"UTC-6":  "Etc/GMT+6",
	"UTC-5":  "Etc/GMT+5",
	"UTC-4":  "Etc/GMT+4",
	"UTC-3":  "Etc/GMT+3",
	"UTC-2":  "Etc/GMT+2",
	"UTC-1":  "Etc/GMT+1",
	"UTC+0":  "UTC",
	"UTC":    "UTC",
	"UTC+1":  "Etc/GMT-1",
	"UTC+2":  "Etc/GMT-2",
	"UTC+3":  "Etc/GMT-3",
	"UTC+4":  "Etc/GMT-4",
	"UTC+5":  "Etc/GMT-5",
	"UTC+6":  "Etc/GMT-6",
	"UTC+7":  "Etc/GMT-7",
	"UTC+8":  "Etc/GMT-8",
	"UTC+9":  "Etc/GMT-9",
	"UTC+10": "Etc/GMT-10",
	"UTC+11": "Etc/GMT-11",
	"UTC+12": "Etc/GMT-12",
}

// tradingHoursActive сообщает, попадает ли момент времени в настроенное
// торговое окно. Окно с началом позже конца переходит через полночь.
// Любая проблема разбора зоны или времени трактуется в пользу торговли.
func (t *Trader) tradingHoursActive(now time.Time) bool {
	hours := t.cfg.TradingHours()
	if !hours.Enabled {
		return true
	}

	loc, ok := resolveLocation(hours.Timezone)
	if !ok {
		t.logEntry().WithField("timezone", hours.Timezone).
			Warn("Неизвестный часовой пояс, используется UTC.")
	}
	local := now.In(loc)

	start, okStart := parseClock(hours.Start)
	end, okEnd := parseClock(hours.End)
	if !okStart || !okEnd {
		t.logEntry().WithFields(map[string]interface{}{
			"start": hours.Start,
			"end":   hours.End,
		}).Warn("Некорректный формат торговых часов, ограничение отключено.")
		return true
	}

	current := local.Hour()*60 + local.Minute()
	if start <= end {
		return current >= start && current <= end
	}
	return current >= start || current <= end
}

func resolveLocation(name string) (*time.Location, bool) {
	if name == "" {
		return time.UTC, true
	}
	if zone, ok := utcOffsetZones[name]; ok {
		name = zone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, false
	}
	return loc, true
}

func parseClock(value string) (int, bool) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, false
	}
	return parsed.Hour()*60 + parsed.Minute(), true
}
