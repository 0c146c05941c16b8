package entity

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu      UserState = "main_menu"      // В главном меню
	StateAwaitingPhoto UserState = "awaiting_photo" // Ожидание снимка для осмотра
	StateProcessing    UserState = "processing"     // Обработка изображения
)

// User представляет пользователя бота
type User struct {
	ID           int64     // Telegram User ID
	ChatID       int64     // Telegram Chat ID
	State        UserState // Текущее состояние пользователя
	InspectionID int64     // Текущий осмотр, 0 если не выбран
	Threshold    *float64  // Порог детектора, nil означает значение по умолчанию
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// SelectInspection делает осмотр текущим и ждёт снимок
func (u *User) SelectInspection(iid int64) {
	u.InspectionID = iid
	u.State = StateAwaitingPhoto
}

// HasInspection сообщает, выбран ли осмотр
func (u *User) HasInspection() bool {
	return u.InspectionID > 0
}
