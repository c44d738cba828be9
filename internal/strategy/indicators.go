package strategy

import (
	"github.com/Telegram-Airdrop-Bot/multitradebot/internal/models"
)

// RSI считает индекс относительной силы по ценам закрытия (сглаживание
// Уайлдера). Возвращает 50 при нехватке данных.
func RSI(bars []models.Bar, period int) float64 {
	if period <= 0 || len(bars) < period+1 {
		return 50
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		delta := bars[i].Close - bars[i-1].Close
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(bars); i++ {
		delta := bars[i].Close - bars[i-1].Close
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// EMA считает экспоненциальную скользящую по списку значений.
func EMA(values []float64, period int) float64 {
	if period <= 0 || len(values) == 0 {
		return 0
	}
	if len(values) < period {
		period = len(values)
	}

	k := 2.0 / (float64(period) + 1)
	ema := values[0]
	for _, v := range values[1:] {
		ema = v*k + ema*(1-k)
	}
	return ema
}

// MACD возвращает линию MACD и сигнальную линию (12/26/9 по умолчанию).
func MACD(bars []models.Bar, fast, slow, signal int) (macd, signalLine float64) {
	if len(bars) < slow+signal {
		return 0, 0
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	macdSeries := make([]float64, 0, signal)
	for i := slow; i <= len(closes); i++ {
		window := closes[:i]
		macdSeries = append(macdSeries, EMA(window, fast)-EMA(window, slow))
	}

	macd = macdSeries[len(macdSeries)-1]
	signalLine = EMA(macdSeries, signal)
	return macd, signalLine
}

// VolumeEMA считает EMA объёма за период.
func VolumeEMA(bars []models.Bar, period int) float64 {
	if len(bars) == 0 {
		return 0
	}
	start := len(bars) - period
	if start < 0 {
		start = 0
	}
	volumes := make([]float64, 0, period)
	for _, b := range bars[start:] {
		volumes = append(volumes, b.Volume)
	}
	return EMA(volumes, period)
}
