package models

import "context"

// DuckStore persists ducks and their facts. Implementations must apply rating
// changes atomically and remove a duck's facts together with the duck.
type DuckStore interface {
	CreateDuck(ctx context.Context, duck *CreateDuckRequest) (*Duck, error)
	// GetDuck returns the duck with its facts.
	GetDuck(ctx context.Context, duckID int64) (*Duck, error)
	// GetDuckByName returns the first duck, by id, with exactly this name.
	GetDuckByName(ctx context.Context, name string) (*Duck, error)
	ListDucks(ctx context.Context) ([]*Duck, error)
	// DeleteDuck deletes the duck and all of its facts, returning the deleted duck.
	DeleteDuck(ctx context.Context, duckID int64) (*Duck, error)
	CountDucks(ctx context.Context) (int, error)

	CreateFact(ctx context.Context, duckID int64, fact *CreateFactRequest) (*DuckFact, error)
	GetFact(ctx context.Context, factID int64) (*DuckFact, error)
	DeleteFact(ctx context.Context, factID int64) (*DuckFact, error)
	// AdjustRating adds delta (+1 or -1) to the fact's rating.
	AdjustRating(ctx context.Context, factID int64, delta int) (*DuckFact, error)
	// RateFact applies a vote to a fact owned by the given duck.
	RateFact(ctx context.Context, duckID, factID int64, direction Direction) (*DuckFact, error)
	CountFacts(ctx context.Context) (int, error)

	Close() error
}
