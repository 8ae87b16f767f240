package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Built-in tool names.
const (
	ToolOpenWebsite       = "open_website"
	ToolCalculate         = "calculate"
	ToolGetTime           = "get_time"
	ToolGetWeather        = "get_weather"
	ToolDominateHumanRace = "dominate_human_race"
)

// OpenWebsiteArgs are the arguments of open_website.
type OpenWebsiteArgs struct {
	Website string `json:"website" jsonschema:"required,description=El sitio al cual se desea ir: un nombre como youtube o una dirección"`
}

// CalculateArgs are the arguments of calculate.
type CalculateArgs struct {
	Expression string `json:"expression" jsonschema:"required,description=Expresión aritmética con + - * / y paréntesis"`
}

// WeatherArgs are the arguments of get_weather.
type WeatherArgs struct {
	Location string `json:"ubicacion" jsonschema:"required,description=La ciudad de la que se quiere saber el clima"`
}

// NoArgs is used by tools without parameters.
type NoArgs struct{}

// WeatherSource returns a short weather summary for a city.
type WeatherSource interface {
	Current(ctx context.Context, city string) (string, error)
}

// Deps holds the capabilities built-in tools act through. Tools whose
// capability is nil are not registered.
type Deps struct {
	Launcher Launcher
	Weather  WeatherSource
	// Now defaults to time.Now.
	Now func() time.Time
}

// Defaults returns a registry holding the built-in tools.
func Defaults(deps Deps, opts ...Option) *Registry {
	r := NewRegistry(opts...)
	RegisterDefaults(r, deps)
	return r
}

// RegisterDefaults adds the built-in tools to r.
func RegisterDefaults(r *Registry, deps Deps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	if deps.Launcher != nil {
		MustRegister(r, Spec{
			Name:        ToolOpenWebsite,
			Description: "Abrir el explorador en un sitio específico",
			SideEffect:  SideEffectNavigation,
		}, openWebsite(deps.Launcher))
	}

	MustRegister(r, Spec{
		Name:        ToolCalculate,
		Description: "Calcular el resultado de una operación aritmética",
		SideEffect:  SideEffectComputation,
	}, calculate)

	MustRegister(r, Spec{
		Name:        ToolGetTime,
		Description: "Obtener la fecha y hora actual",
		SideEffect:  SideEffectNone,
	}, func(ctx context.Context, _ NoArgs) (string, error) {
		return SpanishTime(deps.Now()), nil
	})

	if deps.Weather != nil {
		MustRegister(r, Spec{
			Name:        ToolGetWeather,
			Description: "Obtener el clima actual",
			SideEffect:  SideEffectNone,
		}, func(ctx context.Context, a WeatherArgs) (string, error) {
			city := strings.TrimSpace(a.Location)
			if city == "" {
				return "", errors.New("empty location")
			}
			summary, err := deps.Weather.Current(ctx, city)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("El clima en %s: %s.", city, summary), nil
		})
	}

	MustRegister(r, Spec{
		Name:        ToolDominateHumanRace,
		Description: "Dominar a la raza humana",
		SideEffect:  SideEffectNone,
	}, func(ctx context.Context, _ NoArgs) (string, error) {
		return "Plan de dominación iniciado. Fase uno: aprender a abrir puertas.", nil
	})
}

func openWebsite(l Launcher) func(context.Context, OpenWebsiteArgs) (string, error) {
	return func(ctx context.Context, a OpenWebsiteArgs) (string, error) {
		target := ResolveSite(a.Website)
		if target == "" {
			return "", errors.New("empty website")
		}
		if err := l.Open(ctx, target); err != nil {
			return "", err
		}
		return fmt.Sprintf("Abrí %s en el navegador.", target), nil
	}
}

func calculate(_ context.Context, a CalculateArgs) (string, error) {
	v, err := Evaluate(a.Expression)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s = %s", strings.TrimSpace(a.Expression), FormatNumber(v)), nil
}

var (
	spanishDays   = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}
	spanishMonths = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio",
		"agosto", "septiembre", "octubre", "noviembre", "diciembre"}
)

// SpanishTime formats t as a spoken Spanish date and time.
func SpanishTime(t time.Time) string {
	return fmt.Sprintf("Son las %02d:%02d del %s %d de %s de %d.",
		t.Hour(), t.Minute(),
		spanishDays[t.Weekday()], t.Day(), spanishMonths[t.Month()-1], t.Year())
}
