package sqlinline

const QSelectProfileProByEmail = `--sql 4a3aed6b-a507-46e6-bf0b-382d5465a522
select coalesce(is_pro, false)
from profiles
where email = $1::text
limit 1;
`

const QSelectProfileByEmail = `--sql 648929de-650f-4e1c-9882-b21ffb4d78aa
select id::text, email, coalesce(is_pro, false)
from profiles
where email = $1::text
limit 1;
`

const QUpdateProfilePro = `--sql 3c4e79c3-8c59-4093-83c5-15357f2bdd56
update profiles
set is_pro = $2::boolean
where email = $1::text
returning id::text, email, coalesce(is_pro, false);
`
