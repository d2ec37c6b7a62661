package telegram

import (
	"context"
	"strings"

	"github.com/adhyankumar740-cloud/Game/internal/handlers"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type commandFunc func(h *handlers.HandlerManager, ctx context.Context, message *tgbotapi.Message, bot handlers.BotInterface)

type command struct {
	name        string
	description string
	// hidden commands are routed but not listed in the command menu
	hidden bool
	handle commandFunc
}

var commands = []command{
	{name: "start", description: "Introduce the bot", handle: (*handlers.HandlerManager).HandleStart},
	{name: "about", description: "About this bot", handle: (*handlers.HandlerManager).HandleAbout},
	{name: "ranking", description: "Quiz & Hustle leaderboard", handle: (*handlers.HandlerManager).HandleRanking},
	{name: "myscore", description: "Your total score", handle: (*handlers.HandlerManager).HandleMyScore},
	{name: "profile", description: "Score and rank of you or the replied user", handle: (*handlers.HandlerManager).HandleProfile},
	{name: "prof", hidden: true, handle: (*handlers.HandlerManager).HandleProfile},
	{name: "hustle", description: "Start a Word Hustle round", handle: (*handlers.HandlerManager).HandleHustle},
	{name: "img", description: "Search a photo", handle: (*handlers.HandlerManager).HandleImageSearch},
	{name: "gen", description: "Generate an image from a prompt", handle: (*handlers.HandlerManager).HandleImageGenerate},
	{name: "get_id", hidden: true, handle: (*handlers.HandlerManager).HandleGetID},
	{name: "broadcast", hidden: true, handle: (*handlers.HandlerManager).HandleBroadcast},
	{name: "release_lock", hidden: true, handle: (*handlers.HandlerManager).HandleReleaseLock},
	{name: "timer_status", hidden: true, handle: (*handlers.HandlerManager).HandleTimerStatus},
	{name: "export_scores", hidden: true, handle: (*handlers.HandlerManager).HandleExportScores},
}

func lookupCommand(name string) (command, bool) {
	name = strings.ToLower(name)
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

func menuCommands() []tgbotapi.BotCommand {
	var menu []tgbotapi.BotCommand
	for _, cmd := range commands {
		if cmd.hidden {
			continue
		}
		menu = append(menu, tgbotapi.BotCommand{Command: cmd.name, Description: cmd.description})
	}
	return menu
}

func (b *Bot) registerCommands() error {
	_, err := b.api.Request(tgbotapi.NewSetMyCommands(menuCommands()...))
	return err
}
