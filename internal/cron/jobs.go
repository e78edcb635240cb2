package cron

import (
	"context"

	"github.com/persibuloi/kamenic/internal/store"
)

type refreshJob struct {
	member store.Member
}

// RefreshJob refetches one data store. A failed refetch keeps the store's last good
// list, so the job error only reaches the log.
func RefreshJob(member store.Member) Job {
	if member == nil {
		return nil
	}
	return refreshJob{member: member}
}

func (j refreshJob) Name() string { return "refresh:" + j.member.Name() }

func (j refreshJob) Run(ctx context.Context) error {
	return j.member.Refresh(ctx)
}

// RefreshJobs builds one refresh job per member.
func RefreshJobs(members ...store.Member) []Job {
	jobs := make([]Job, 0, len(members))
	for _, m := range members {
		if job := RefreshJob(m); job != nil {
			jobs = append(jobs, job)
		}
	}
	return jobs
}
