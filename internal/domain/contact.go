package domain

// BirthdayLookaheadDays — ширина окна "ближайших дней рождения" (включительно).
const BirthdayLookaheadDays = 7

// Contact представляет модель контакта,
// соответствует таблице contacts в бд
type Contact struct {
	ID             int64   `json:"id" db:"id"`
	FirstName      string  `json:"first_name" db:"first_name"`
	LastName       string  `json:"last_name" db:"last_name"`
	Email          string  `json:"email" db:"email"`
	Phone          string  `json:"phone" db:"phone"`
	Birthday       Date    `json:"birthday" db:"birthday"`
	AdditionalInfo *string `json:"additional_info" db:"additional_info"`
}

// ContactFields — изменяемые поля контакта. Используется и при создании,
// и при полной замене записи.
type ContactFields struct {
	FirstName      string  `json:"first_name" validate:"required,max=255"`
	LastName       string  `json:"last_name" validate:"required,max=255"`
	Email          string  `json:"email" validate:"required,max=255"`
	Phone          string  `json:"phone" validate:"max=50"`
	Birthday       Date    `json:"birthday" validate:"required"`
	AdditionalInfo *string `json:"additional_info" validate:"omitempty,max=2000"`
}

// Contact собирает сущность из полей; идентификатор назначает хранилище.
func (f ContactFields) Contact() Contact {
	return Contact{
		FirstName:      f.FirstName,
		LastName:       f.LastName,
		Email:          f.Email,
		Phone:          f.Phone,
		Birthday:       f.Birthday,
		AdditionalInfo: f.AdditionalInfo,
	}
}

// ContactFilter — условия поиска. Пустая строка означает отсутствие условия.
type ContactFilter struct {
	Name  string
	Email string
}

// BirthdayWindow возвращает включительный диапазон [ref, ref+7 дней].
// Сравнение идёт по полной дате, включая год.
func BirthdayWindow(ref Date) (from, to Date) {
	return ref, ref.AddDays(BirthdayLookaheadDays)
}
