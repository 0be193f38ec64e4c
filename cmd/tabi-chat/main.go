// README: Interactive terminal client for the chat endpoint.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "tabi-api base URL")
	timeout := flag.Duration("timeout", 60*time.Second, "request timeout")
	saveMaps := flag.Bool("save-maps", false, "write map_data of each plan to a JSON file")
	flag.Parse()

	client := NewClient(*baseURL, *timeout)
	ai := color.New(color.FgCyan)
	warn := color.New(color.FgYellow)

	fmt.Println("旅行AIコンシェルジュへようこそ！")
	fmt.Println("メッセージを入力してください（'quit'で終了、'history'で履歴表示、'clear'で履歴クリア）")
	fmt.Println(strings.Repeat("-", 50))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nあなた: ")
		if !scanner.Scan() {
			return
		}
		input := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(input) {
		case "":
			continue
		case "quit", "exit", "終了":
			fmt.Println("ありがとうございました！")
			return
		case "history":
			printHistory(client.History())
			continue
		case "clear":
			if err := client.Reset(); err != nil {
				warn.Printf("リセットに失敗しました: %v\n", err)
				continue
			}
			fmt.Println("チャット履歴をクリアしました。")
			continue
		}

		reply, err := client.Send(input)
		if err != nil {
			warn.Printf("エラー: %v\n", err)
			continue
		}
		ai.Printf("AI: %s\n", reply.Response)

		if len(reply.Locations) > 0 {
			fmt.Printf("📍 %d か所の観光地、%d 件の飲食店が見つかりました\n", len(reply.Locations), len(reply.Restaurants))
		}
		if *saveMaps {
			if name, err := client.SaveMapData(reply.MapData, ""); err != nil {
				warn.Println(err)
			} else if name != "" {
				fmt.Printf("地図データを保存しました: %s\n", name)
			}
		}
	}
}

func printHistory(entries []historyEntry) {
	fmt.Println("\n=== チャット履歴 ===")
	for _, e := range entries {
		label := "AI"
		if e.Sender == senderUser {
			label = "あなた"
		}
		fmt.Printf("[%s] %s: %s\n", e.At.Format("2006-01-02 15:04:05"), label, e.Message)
	}
	fmt.Println("==================")
}
