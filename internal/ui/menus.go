package ui

import (
	"github.com/ave4ge/findateammatebot/internal/infra/telegram"
)

const MenuButton = "🏠 В меню"

const (
	MainMenuText = "🎮 <b>Бот для поиска тиммейтов в Roblox</b>\n\nВыберите действие:"
	MenuHintText = "Ты можешь всегда нажать на кнопку '" + MenuButton + "' чтобы вернуться сюда"
)

func MainMenu() [][]telegram.InlineButton {
	return [][]telegram.InlineButton{
		{{Text: "👤 Моя анкета", Data: Action{Kind: ActionMyProfile}.Encode()}},
		{{Text: "🔍 Искать тиммейта", Data: Action{Kind: ActionFind}.Encode()}},
		{{Text: "🤝 Найденные тиммейты", Data: Action{Kind: ActionFound}.Encode()}},
		{{Text: "🏪 Магазин", Data: Action{Kind: ActionShop}.Encode()}},
		{{Text: "🔗 Реф ссылка", Data: Action{Kind: ActionReferral}.Encode()}},
		{{Text: "📞 Поддержка", Data: Action{Kind: ActionSupport}.Encode()}},
	}
}

func MenuKeyboard() [][]string {
	return [][]string{{MenuButton}}
}

func BackToMenu() [][]telegram.InlineButton {
	return [][]telegram.InlineButton{
		{{Text: "🔙 Назад", Data: Action{Kind: ActionMenu}.Encode()}},
	}
}

func CancelKeyboard() [][]telegram.InlineButton {
	return [][]telegram.InlineButton{
		{{Text: "❌ Отмена", Data: Action{Kind: ActionCancel}.Encode()}},
	}
}
