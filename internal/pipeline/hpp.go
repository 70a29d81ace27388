package pipeline

// PollutionGuard схлопывает повторяющиеся параметры до последнего значения.
// Параметры из whitelist остаются списком (?price=10&price=20).
// В теле трогаем только формы: списки в JSON легальны.
type PollutionGuard struct {
	whitelist map[string]struct{}
}

func NewPollutionGuard(whitelist []string) *PollutionGuard {
	wl := make(map[string]struct{}, len(whitelist))
	for _, f := range whitelist {
		wl[f] = struct{}{}
	}
	return &PollutionGuard{whitelist: wl}
}

func (g *PollutionGuard) Name() string { return "hpp" }

func (g *PollutionGuard) Allowed(field string) bool {
	_, ok := g.whitelist[field]
	return ok
}

func (g *PollutionGuard) Process(rc *RequestContext) Outcome {
	for k, vs := range rc.Query {
		if len(vs) > 1 && !g.Allowed(k) {
			rc.Query[k] = vs[len(vs)-1:]
		}
	}
	if rc.BodyKind == BodyForm {
		for k, v := range rc.Body {
			list, ok := v.([]any)
			if !ok || g.Allowed(k) || len(list) == 0 {
				continue
			}
			rc.Body[k] = list[len(list)-1]
		}
	}
	return Continue()
}
