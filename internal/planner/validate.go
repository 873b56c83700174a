package planner

import "subsidyscout/internal/model"

// Validator drops planned URLs that were never harvested from the main
// page. Sub-pages are always checked; documents only when
// ValidateDocuments is set.
type Validator struct {
	ValidateDocuments bool
}

// Validate returns a filtered copy of plan together with the URLs that
// were dropped. plan itself is not modified.
func (v Validator) Validate(plan model.ScrapingPlan, harvestedPages, harvestedDocuments []model.LinkRecord) (model.ScrapingPlan, []string) {
	out := plan
	var dropped []string
	out.SubPages, dropped = keepHarvested(plan.SubPages, harvestedPages)
	if v.ValidateDocuments {
		var droppedDocs []string
		out.Documents, droppedDocs = keepHarvested(plan.Documents, harvestedDocuments)
		dropped = append(dropped, droppedDocs...)
	} else {
		out.Documents = append([]model.PlanTarget{}, plan.Documents...)
	}
	out.FocusKeywords = append([]string{}, plan.FocusKeywords...)
	return out, dropped
}

// Validate filters plan.SubPages against the harvested page links and
// passes documents through unchanged.
func Validate(plan model.ScrapingPlan, harvestedPages []model.LinkRecord) (model.ScrapingPlan, []string) {
	return Validator{}.Validate(plan, harvestedPages, nil)
}

func keepHarvested(targets []model.PlanTarget, harvested []model.LinkRecord) ([]model.PlanTarget, []string) {
	known := make(map[string]struct{}, len(harvested))
	for _, l := range harvested {
		known[l.URL] = struct{}{}
	}

	kept := make([]model.PlanTarget, 0, len(targets))
	var dropped []string
	for _, t := range targets {
		if _, ok := known[t.URL]; ok {
			kept = append(kept, t)
			continue
		}
		dropped = append(dropped, t.URL)
	}
	return kept, dropped
}
