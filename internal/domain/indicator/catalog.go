package indicator

// CatalogVersion identifies the built-in catalog.
const CatalogVersion = "2025.1"

// DefaultCatalog returns the built-in organizational health catalog. It is
// versioned alongside the engine; callers that score against a different
// catalog build their own Registry.
func DefaultCatalog() *Registry {
	r, err := NewRegistry(CatalogVersion,
		Indicator{ID: "deployment_frequency", Name: "Deployment frequency", Weight: 0.15, HigherIsBetter: true, Unit: "deploys/week"},
		Indicator{ID: "lead_time", Name: "Lead time for changes", Weight: 0.15, HigherIsBetter: false, Unit: "hours"},
		Indicator{ID: "change_failure_rate", Name: "Change failure rate", Weight: 0.15, HigherIsBetter: false, Unit: "percent"},
		Indicator{ID: "time_to_restore", Name: "Time to restore service", Weight: 0.10, HigherIsBetter: false, Unit: "hours"},
		Indicator{ID: "test_coverage", Name: "Automated test coverage", Weight: 0.10, HigherIsBetter: true, Unit: "percent"},
		Indicator{ID: "engagement", Name: "Team engagement", Weight: 0.15, HigherIsBetter: true, Unit: "score"},
		Indicator{ID: "psychological_safety", Name: "Psychological safety", Weight: 0.10, HigherIsBetter: true, Unit: "score"},
		Indicator{ID: "attrition", Name: "Voluntary attrition", Weight: 0.10, HigherIsBetter: false, Unit: "percent/yr"},
	)
	if err != nil {
		// The literal above is validated by tests; a failure here is a programming error.
		panic(err)
	}
	return r
}
