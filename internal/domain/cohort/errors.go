package cohort

import "errors"

// Sentinel kinds for cohort building errors.
var (
	ErrNoTeams       = errors.New("no teams to group")
	ErrDuplicateTeam = errors.New("duplicate team in baselines")
	ErrMissingTeamID = errors.New("baseline snapshot has no team id")
)
