package domain

import "time"

// RunStatus is the lifecycle state of a single crawl invocation.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// CrawlRun is the durable audit record bracketing one pipeline run.
// Exactly one terminal update (completed or failed) follows every start.
type CrawlRun struct {
	ID               string
	Source           Source
	StartedAt        time.Time
	CompletedAt      *time.Time
	Status           RunStatus
	ArticlesFound    int
	ArticlesFiltered int
	ErrorMessage     string
}

// CrawlStats summarizes one run for the trigger response.
type CrawlStats struct {
	Source           Source `json:"source"`
	ArticlesFound    int    `json:"articlesFound"`
	ArticlesFiltered int    `json:"articlesFiltered"`
}
