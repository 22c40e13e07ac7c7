package sqlinline

const QInsertCampaign = `--sql 04a3ad1b-6562-4407-bf7b-908bfd2c85b3
insert into campaigns(id, title, slug, description, goal_amount, current_amount, currency, status, category, location, start_date, end_date, verified, created_by_id, created_at, updated_at)
values ($1::uuid, $2::text, $3::text, $4::text, $5::numeric, 0, $6::text, $7::text, $8::text, $9::text, $10::timestamptz, $11::timestamptz, $12::bool, $13::uuid, now(), now());
`

const QGetCampaignByID = `--sql 646a5dbf-c8bb-44d6-9aad-5b3be7cc1adc
select id, title, slug, description, goal_amount, current_amount, currency, status, category, location, start_date, end_date, verified, verified_at, created_by_id, created_at, updated_at
from campaigns
where id = $1::uuid;
`

const QGetCampaignBySlug = `--sql 36ba94ec-e4ae-4dcc-a683-5ab5add71a79
select id, title, slug, description, goal_amount, current_amount, currency, status, category, location, start_date, end_date, verified, verified_at, created_by_id, created_at, updated_at
from campaigns
where slug = $1::text;
`

const QListActiveCampaigns = `--sql e303590e-5c0d-4ac9-9e11-9c888f148a7d
select id, title, slug, description, goal_amount, current_amount, currency, status, category, location, start_date, end_date, verified, verified_at, created_by_id, created_at, updated_at
from campaigns
where status = 'ACTIVE'
order by created_at desc
limit $1::int;
`

const QIncrementCampaignTotal = `--sql c0b0d53d-1be6-4b8b-a61e-349b5c63e0f5
update campaigns
set current_amount = current_amount + $2::numeric, updated_at = now()
where id = $1::uuid;
`

const QDecrementCampaignTotal = `--sql 913b303c-d318-47b9-a893-570ab7ffc420
update campaigns
set current_amount = current_amount - $2::numeric, updated_at = now()
where id = $1::uuid;
`
