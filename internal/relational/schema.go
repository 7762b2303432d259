package relational

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS companies (
  id BIGSERIAL PRIMARY KEY,
  company_name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS jobs (
  id BIGSERIAL PRIMARY KEY,
  searched_job_title TEXT NOT NULL,
  job_title TEXT NOT NULL,
  company_id BIGINT NOT NULL REFERENCES companies(id),
  location TEXT NOT NULL,
  salary TEXT NOT NULL,
  level TEXT NOT NULL,
  job_url TEXT NOT NULL UNIQUE,
  job_description TEXT NOT NULL,
  date_added TIMESTAMPTZ NOT NULL,
  source TEXT NOT NULL
);
`

func Migrate(ctx context.Context, db Querier) error {
	_, err := db.Exec(ctx, schemaSQL)
	return err
}
