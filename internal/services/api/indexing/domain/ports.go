package domain

import "context"

// ServicePort is the interface implemented by the indexing service
type ServicePort interface {
	Submit(ctx context.Context, in SubmitInput) (SubmitOutput, error)
	Subscribe(ctx context.Context, k RepoKey, emit func(Event) error) error
	Docs(ctx context.Context, k RepoKey) (Docs, error)
	Check(ctx context.Context, k RepoKey) (CheckOutput, error)
	ResetLimit(ctx context.Context, by Requester, in ResetLimitInput) (ResetLimitOutput, error)
}

// ReaperPort sweeps runs whose worker died without reporting
type ReaperPort interface {
	Reap(ctx context.Context, in ReapInput) (ReapResult, error)
}
