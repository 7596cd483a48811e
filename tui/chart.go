// Copyright 2024 The trill Authors
// This file is part of trill.
//
// trill is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// trill is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with trill. If not, see <http://www.gnu.org/licenses/>.

package tui

import (
	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/lipgloss"
)

// activityLine draws the last width points of a cumulative series as a one
// row sparkline. Points are shifted by the smallest one shown so that slow
// growth on a large count stays visible.
func activityLine(series []uint64, width int, style lipgloss.Style) string {
	if width <= 0 || len(series) == 0 {
		return ""
	}
	if len(series) > width {
		series = series[len(series)-width:]
	}
	lo, hi := series[0], series[0]
	for _, v := range series {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	chart := sparkline.New(len(series), 1,
		sparkline.WithStyle(style),
		sparkline.WithMaxValue(max(float64(hi-lo), 1)),
	)
	for _, v := range series {
		chart.Push(float64(v - lo))
	}
	chart.Draw()
	return chart.View()
}
