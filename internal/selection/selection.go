// Package selection holds the dashboard's control-panel state. A State is a
// value: every update returns a new State and never mutates the receiver.
package selection

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/headline-goat/ratechart/internal/dataset"
	"github.com/headline-goat/ratechart/internal/series"
)

var (
	ErrUnknownVariation = errors.New("unknown variation")
	ErrInvalidOption    = errors.New("invalid option")
)

// Choice is either every variation or a single variation id.
type Choice struct {
	all bool
	id  int
}

// AllVariations selects one series per variation.
var AllVariations = Choice{all: true}

// Variation selects the variation with the given id.
func Variation(id int) Choice {
	return Choice{id: id}
}

func (c Choice) IsAll() bool {
	return c.all
}

func (c Choice) ID() int {
	return c.id
}

func (c Choice) String() string {
	if c.all {
		return "all"
	}
	return strconv.Itoa(c.id)
}

// ParseChoice accepts "all" (or empty) and variation ids.
func ParseChoice(s string) (Choice, error) {
	if s == "" || s == "all" {
		return AllVariations, nil
	}
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return Choice{}, fmt.Errorf("%w: variation %q", ErrInvalidOption, s)
	}
	return Variation(id), nil
}

type LineStyle int

const (
	StyleLine LineStyle = iota
	StyleSmooth
	StyleArea
)

func (s LineStyle) String() string {
	switch s {
	case StyleSmooth:
		return "smooth"
	case StyleArea:
		return "area"
	default:
		return "line"
	}
}

func ParseLineStyle(s string) (LineStyle, error) {
	switch s {
	case "", "line":
		return StyleLine, nil
	case "smooth":
		return StyleSmooth, nil
	case "area":
		return StyleArea, nil
	}
	return StyleLine, fmt.Errorf("%w: line style %q", ErrInvalidOption, s)
}

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case "", ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	}
	return ThemeLight, fmt.Errorf("%w: theme %q", ErrInvalidOption, s)
}

func ParsePeriod(s string) (series.Period, error) {
	switch s {
	case "", "day":
		return series.Daily, nil
	case "week":
		return series.Weekly, nil
	}
	return series.Daily, fmt.Errorf("%w: time period %q", ErrInvalidOption, s)
}

// State is the control-panel selection read by the chart pipeline.
type State struct {
	Variation Choice
	Period    series.Period
	LineStyle LineStyle
	Theme     Theme
}

// Default is all variations, daily, straight lines, light theme.
func Default() State {
	return State{
		Variation: AllVariations,
		Period:    series.Daily,
		LineStyle: StyleLine,
		Theme:     ThemeLight,
	}
}

func (s State) WithVariation(c Choice) State {
	s.Variation = c
	return s
}

func (s State) WithPeriod(p series.Period) State {
	s.Period = p
	return s
}

func (s State) WithLineStyle(ls LineStyle) State {
	s.LineStyle = ls
	return s
}

func (s State) WithTheme(t Theme) State {
	s.Theme = t
	return s
}

// ToggleTheme flips between light and dark.
func (s State) ToggleTheme() State {
	if s.Theme == ThemeDark {
		return s.WithTheme(ThemeLight)
	}
	return s.WithTheme(ThemeDark)
}

// Scope resolves the variation choice against a dataset.
func (s State) Scope(ds *dataset.Dataset) (series.Scope, error) {
	if s.Variation.all {
		return series.All(), nil
	}
	v, ok := ds.Variation(s.Variation.id)
	if !ok {
		return series.Scope{}, fmt.Errorf("%w: %d", ErrUnknownVariation, s.Variation.id)
	}
	return series.Single(v), nil
}

// FromQuery reads a state from URL parameters, starting from Default.
func FromQuery(q url.Values) (State, error) {
	s := Default()
	var err error
	if s.Variation, err = ParseChoice(q.Get("variation")); err != nil {
		return s, err
	}
	if s.Period, err = ParsePeriod(q.Get("period")); err != nil {
		return s, err
	}
	if s.LineStyle, err = ParseLineStyle(q.Get("style")); err != nil {
		return s, err
	}
	if s.Theme, err = ParseTheme(q.Get("theme")); err != nil {
		return s, err
	}
	return s, nil
}

// Query encodes the state as URL parameters.
func (s State) Query() url.Values {
	q := url.Values{}
	q.Set("variation", s.Variation.String())
	q.Set("period", s.Period.String())
	q.Set("style", s.LineStyle.String())
	q.Set("theme", string(s.Theme))
	return q
}
