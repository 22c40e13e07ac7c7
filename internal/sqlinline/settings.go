package sqlinline

const QListSettings = `--sql 17e0ddd9-5a94-496b-be09-eb4efeea3bdc
select key, value, type, category, updated_at
from settings
order by category, key;
`

const QUpsertSetting = `--sql 45e1398b-e889-450b-95d4-a62a8a962d4c
insert into settings(key, value, type, category, updated_at)
values ($1::text, $2::text, $3::text, $4::text, now())
on conflict (key) do update set value = excluded.value, type = excluded.type, category = excluded.category, updated_at = now();
`
