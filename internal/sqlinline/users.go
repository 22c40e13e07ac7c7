package sqlinline

const QInsertUser = `--sql 4953a644-4744-4313-bc9a-84b13bdd5e80
insert into users(id, email, password_hash, first_name, last_name, role, status, email_verified, country, language, created_at, updated_at)
values ($1::uuid, lower($2::text), $3::text, $4::text, $5::text, $6::text, $7::text, $8::bool, $9::text, $10::text, now(), now());
`

const QGetUserByID = `--sql 3c314948-f456-4bda-9f6f-72c56f6f4c77
select id, email, password_hash, first_name, last_name, role, status, email_verified, country, language, created_at, updated_at
from users
where id = $1::uuid;
`

const QGetUserByEmail = `--sql 1dc18096-5123-416d-9987-604d83094d84
select id, email, password_hash, first_name, last_name, role, status, email_verified, country, language, created_at, updated_at
from users
where email = lower($1::text);
`
