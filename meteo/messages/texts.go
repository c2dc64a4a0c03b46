package messages

const (
	Greeting = "Привет! Я ваш личный метеорологический помощник.\n" +
		"Могу предоставить вам текущий прогноз погоды как по городу, так и по геолокации.\n\n" +
		"Просто нажмите на нужную кнопку в меню, после чего отправьте мне название города " +
		"или свою геопозицию, и я поделюсь с вами актуальной информацией о погоде.\n\n" +
		"Попробуйте и узнайте, какая погода вас ожидает! 🌦️🌤️"

	Menu = "🌦️ Приветствую в метео-меню 🌧️\n\n" +
		"Как вы хотите получить прогноз погоды?\n" +
		"🏙️ Выберите \"Погода по городу\" для ввода названия города.\n" +
		"🌐 Или выберите \"Погода по геолокации\" для использования вашей текущей геопозиции.\n\n" +
		"Просто нажмите на одну из кнопок ниже и начнем! ⬇️"

	CityPrompt     = "Введите название города для получения текущей погоды:"
	LocationPrompt = "Отправьте вашу геолокацию для получения текущей погоды:"
	Cancelled      = "Вы вернулись в меню!\n\n" + Menu
	UnknownCommand = "Я не знаю такой команды.\n" +
		"Нажав на кнопку ниже вы сможете воспользоваться всем моим функционалом. ⬇️"
)

// Button labels.
const (
	ButtonMenu         = "Меню"
	ButtonCityFlow     = "Погода по городу"
	ButtonLocationFlow = "Погода по геолокации"
	ButtonCancel       = "Отмена"
	ButtonBackToMenu   = "Назад в меню"
)

// Callback toasts.
const (
	ToastCancelled   = "Действие отменено"
	ToastUnsupported = "Действие не поддерживается"
)

// Operator notifications.
const (
	AdminStartup  = "Бот запущен!"
	AdminShutdown = "Bot is shutting down"
)

// Bot command descriptions published to the Telegram command menu.
const (
	CommandStartDescription = "Начать работу с ботом"
	CommandMenuDescription  = "Открыть метео-меню"
)
