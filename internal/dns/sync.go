package dns

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
)

type SyncResult struct {
	Created []Record
	Skipped []Record // already present, including create-time races
	Failed  []Record
}

// Sync applies the planned records idempotently: query first, create only
// what's missing, and treat a create that reports "already exists" as a
// skip. The existence check is not atomic with creation, so that race is
// expected and benign. Failures are collected per record, never aborting the
// rest of the plan.
func Sync(ctx context.Context, cli ZoneClient, records []Record, dryRun bool) (*SyncResult, error) {
	res := &SyncResult{}
	var merr *multierror.Error

	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		exists, err := cli.Exists(ctx, r)
		if err != nil {
			res.Failed = append(res.Failed, r)
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", r, err))
			continue
		}
		if exists {
			log.Debug().Stringer("record", r).Msg("record already present")
			res.Skipped = append(res.Skipped, r)
			continue
		}

		if dryRun {
			log.Info().Stringer("record", r).Msg("dry-run: would create record")
			res.Created = append(res.Created, r)
			continue
		}

		switch err := cli.Create(ctx, r); {
		case err == nil:
			log.Info().Stringer("record", r).Msg("record created")
			res.Created = append(res.Created, r)
		case errors.Is(err, ErrRecordExists):
			log.Info().Stringer("record", r).Msg("record appeared concurrently, treating as present")
			res.Skipped = append(res.Skipped, r)
		default:
			res.Failed = append(res.Failed, r)
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", r, err))
		}
	}
	return res, merr.ErrorOrNil()
}
