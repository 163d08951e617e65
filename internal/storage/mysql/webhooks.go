package mysql

import "context"

func (r *Repo) RecordWebhook(ctx context.Context, provider, key, eventType string, payload []byte) (bool, error) {
	res, err := r.q.ExecContext(ctx, insertWebhookSQL, provider, key, eventType, string(payload), now())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
