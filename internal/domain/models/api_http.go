package models

// Requests for the HTTP endpoints. Defined in domain for consistency and reuse.

type ScoresRequest struct {
	Category string `query:"category" json:"category" validate:"omitempty,oneof=commodities crypto equities forex rates-macro stress"`
	Limit    int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
	Featured bool   `query:"featured" json:"featured"`
}

type LevelsRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required"`
}

type EventsRequest struct {
	Kind string `param:"kind" json:"kind" validate:"oneof=aspects ingresses retrogrades lunar_phases nodal_cycle"`
	From string `query:"from" json:"from"`
	To   string `query:"to" json:"to"`
}

type RunRequest struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}
