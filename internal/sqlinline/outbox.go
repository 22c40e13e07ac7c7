package sqlinline

const QEnqueueEmail = `--sql 845c5d64-81e1-4d39-904b-60b3aa2be54c
insert into notification_outbox(id, kind, recipients, subject, body, status, attempts, created_at)
values ($1::uuid, $2::text, $3::text[], $4::text, $5::text, 'PENDING', 0, now());
`

const QListPendingEmails = `--sql 148bc78d-60b8-4279-bdd2-70e1eac49802
select id, kind, recipients, subject, body, status, attempts, created_at, sent_at
from notification_outbox
where status = 'PENDING'
order by created_at
limit $1::int;
`

const QMarkEmailSent = `--sql e59945b8-8e72-4800-a332-f18a55abaef4
update notification_outbox
set status = 'SENT', attempts = attempts + 1, sent_at = now()
where id = $1::uuid;
`

const QMarkEmailFailed = `--sql 0b3f0baf-d6b9-4de4-9f8d-22b40289fb5a
update notification_outbox
set status = 'FAILED', attempts = attempts + 1
where id = $1::uuid;
`
