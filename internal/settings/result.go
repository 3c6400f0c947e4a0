package settings

// Result is the settings aggregate handed to every render.
// Fallback is set when the store failed and Values hold the defaults only.
type Result struct {
	Values   map[string]string
	Fallback bool
	Reason   error
}

// Get returns the value of key or its default.
func (r Result) Get(key string) string {
	if v, ok := r.Values[key]; ok {
		return v
	}

	return Defaults()[key]
}

func (r Result) SiteName() string       { return r.Get(KeySiteName) }
func (r Result) Description() string    { return r.Get(KeyDescription) }
func (r Result) Logo() string           { return r.Get(KeyLogo) }
func (r Result) Favicon() string        { return r.Get(KeyFavicon) }
func (r Result) PrimaryColor() string   { return r.Get(KeyPrimaryColor) }
func (r Result) SecondaryColor() string { return r.Get(KeySecondaryColor) }
func (r Result) Theme() string          { return r.Get(KeyTheme) }
func (r Result) FooterText() string     { return r.Get(KeyFooterText) }
func (r Result) CustomCSS() string      { return r.Get(KeyCustomCSS) }

// DefaultResult returns the defaults as a regular, non fallback result.
func DefaultResult() Result {
	return Result{Values: Defaults()}
}
