package bot

import "github.com/bwmarrin/discordgo"

// options indexes the options of a command interaction by name.
type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func newOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) options {
	m := make(options, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

// String returns a string option, or "".
func (o options) String(name string) string {
	opt, ok := o[name]
	if !ok {
		return ""
	}
	s, _ := opt.Value.(string)
	return s
}

// Bool returns a boolean option, or false.
func (o options) Bool(name string) bool {
	opt, ok := o[name]
	if !ok {
		return false
	}
	b, _ := opt.Value.(bool)
	return b
}

// Int returns an integer option and whether it was set.
func (o options) Int(name string) (int64, bool) {
	opt, ok := o[name]
	if !ok {
		return 0, false
	}
	// JSON numbers decode as float64
	f, ok := opt.Value.(float64)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

// Strings returns every string option by name.
func (o options) Strings() map[string]string {
	m := make(map[string]string, len(o))
	for name, opt := range o {
		if s, ok := opt.Value.(string); ok {
			m[name] = s
		}
	}
	return m
}

// Focused returns the option being autocompleted.
func (o options) Focused() (string, string, bool) {
	for name, opt := range o {
		if opt.Focused {
			s, _ := opt.Value.(string)
			return name, s, true
		}
	}
	return "", "", false
}
