package sqlinline

const QInsertDonation = `--sql f6194fd4-8b7d-4bd4-a8a2-ec4a421e5ff8
insert into donations(id, campaign_id, amount, currency, method, status, donor_name, donor_email, message, anonymous, country_code, created_at)
values ($1::uuid, $2::uuid, $3::numeric, $4::text, $5::text, $6::text, nullif($7::text, ''), nullif($8::text, ''), $9::text, $10::bool, nullif($11::text, ''), now());
`

const QSetDonationProviderRef = `--sql 4ec91b12-0b93-40b5-b2ea-ab0e3ce23bb6
update donations
set provider_ref = $2::text
where id = $1::uuid;
`

const QMarkDonationFailed = `--sql 6d3d8f27-7d85-46bb-acae-ca49f34d3495
update donations
set status = 'FAILED', failure_reason = nullif($2::text, '')
where id = $1::uuid and status = 'PENDING';
`

const QGetDonation = `--sql ee9240de-7b4a-4ba6-805a-45c4f4a70f8f
select id, campaign_id, amount, currency, method, status, donor_name, donor_email, message, anonymous, country_code, provider_ref, provider_event_id, canonical_amount, failure_reason, created_at, completed_at
from donations
where id = $1::uuid;
`

const QGetDonationByProviderRef = `--sql 7f32e142-00f7-47f4-941e-bd53a67c6b87
select id, campaign_id, amount, currency, method, status, donor_name, donor_email, message, anonymous, country_code, provider_ref, provider_event_id, canonical_amount, failure_reason, created_at, completed_at
from donations
where method = $1::text and provider_ref = $2::text;
`

const QListDonationsByCampaign = `--sql 88e358fc-2acc-4a31-bf04-27872ef0dd6b
select id, campaign_id, amount, currency, method, status, donor_name, donor_email, message, anonymous, country_code, provider_ref, provider_event_id, canonical_amount, failure_reason, created_at, completed_at
from donations
where campaign_id = $1::uuid and status = 'COMPLETED'
order by completed_at desc
limit $2::int;
`

// QSettleDonationCompleted is the idempotency guard: the transition only
// applies while the donation is still PENDING, so a duplicate delivery
// matches zero rows and the caller re-reads the current status instead of
// double-counting.
const QSettleDonationCompleted = `--sql fbb1896b-dfba-4b0a-9479-0b1f1da62b5b
update donations
set status = 'COMPLETED', provider_event_id = nullif($2::text, ''), canonical_amount = $3::numeric, completed_at = now()
where id = $1::uuid and status = 'PENDING';
`

const QSettleDonationFailed = `--sql 8d679488-35f4-4fd3-aa1b-feb07cbdabeb
update donations
set status = 'FAILED', provider_event_id = nullif($2::text, ''), failure_reason = nullif($3::text, '')
where id = $1::uuid and status = 'PENDING';
`

const QRefundDonation = `--sql e2e0acc2-6fd9-4ffb-8026-450567bf89b5
update donations
set status = 'REFUNDED'
where id = $1::uuid and status = 'COMPLETED';
`

const QGetDonationStatus = `--sql 90e626a9-1e6e-4c8a-9edf-ec9c56e0feae
select status from donations where id = $1::uuid;
`
