// Package sqlinline holds the inline SQL executed by the Postgres job store.
// Every statement starts with a --sql <uuid> marker line consumed by
// infra.SQLRunner for logging.
package sqlinline

const QInsertJob = `--sql 025a2a38-85d7-448a-81fc-a8ff48bee443
insert into jobs (id, title, style, status, tx_hash, payer, created_at)
values ($1, $2, $3, 'queued', $4, $5, $6)
on conflict (id) do nothing
returning id;
`

const QSelectJob = `--sql e7317c79-0661-4630-b3ed-5b78306165c4
select id, title, style, status, tx_hash, payer, tracks, error_message, created_at, completed_at
from jobs
where id = $1;
`

const QSelectQueued = `--sql 326c5a6b-7394-4771-b1b6-15ad531ab19b
select id, title, style, status, tx_hash, payer, tracks, error_message, created_at, completed_at
from jobs
where status = 'queued'
order by created_at asc;
`

const QQueueLength = `--sql fa36f7aa-4268-46f2-822a-dded89a3b17a
select count(*) from jobs where status = 'queued';
`

// QClaimNextJob pops the oldest queued job and marks it processing in a single
// statement. FOR UPDATE SKIP LOCKED keeps concurrent workers from claiming the
// same row.
const QClaimNextJob = `--sql dae331ba-bcbb-4ecc-ac3c-533153e39dcc
with next_job as (
    select id
    from jobs
    where status = 'queued'
    order by created_at asc
    for update skip locked
    limit 1
),
updated as (
    update jobs
    set status = 'processing'
    where id in (select id from next_job)
    returning id, title, style, status, tx_hash, payer, tracks, error_message, created_at, completed_at
)
select * from updated;
`

// QFinishJob transitions a queued or processing job to a terminal state.
// Returns no rows when the job is missing or already terminal.
const QFinishJob = `--sql 226473a9-e770-4282-a8ba-63a6f1667fe6
update jobs
set status = $2,
    completed_at = now(),
    tracks = coalesce($3, tracks),
    error_message = coalesce($4, error_message)
where id = $1 and status in ('queued', 'processing')
returning id;
`

const QInsertHistory = `--sql 9473c58b-069f-4cea-ad2a-c60589bfdad7
insert into job_history (job_id) values ($1);
`

const QPruneHistory = `--sql c85e96a3-12c4-4bda-ac6b-a46f9e278cf0
delete from job_history
where seq <= (select coalesce(max(seq), 0) - $1 from job_history);
`

const QSelectHistory = `--sql 06e5e80c-ca70-4906-9115-426b0b08bf8d
select j.id, j.title, j.style, j.status, j.tx_hash, j.payer, j.tracks, j.error_message, j.created_at, j.completed_at
from job_history h
join jobs j on j.id = h.job_id
order by h.seq desc
limit $1;
`

const QHistoryLength = `--sql 5c0e5e43-0ca9-4508-a2f0-5bee1bef4298
select count(*) from job_history;
`
