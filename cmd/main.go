package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/char5742/mouse-filter/internal/api"
	"github.com/char5742/mouse-filter/internal/config"
	"github.com/pkg/browser"
)

func main() {
	// コマンドライン引数の解析
	useApi := flag.Bool("api", false, "APIサーバーモードで起動します")
	configPath := flag.String("config", "", "設定ファイルのパス (指定しない場合はデフォルトパスを使用)")
	port := flag.Int("port", 8080, "APIサーバーのポート番号")
	openBrowser := flag.Bool("open", false, "起動後にステータスページをブラウザで開きます (APIモードのみ)")
	flag.Parse()

	// デフォルト設定ファイルパスの設定
	defaultConfigPath := ""
	configDir, err := config.GetDefaultConfigDir()
	if err == nil {
		defaultConfigPath = filepath.Join(configDir, "config.toml")
	}

	// 設定ファイルパスの決定
	cfgPath := defaultConfigPath
	if *configPath != "" {
		cfgPath = *configPath
	}

	// 設定ファイルの読み込み
	var cfg *config.Config
	if cfgPath != "" {
		cfg, err = config.LoadConfig(cfgPath)
		if err != nil {
			fmt.Printf("設定ファイルの読み込みに失敗しました: %v\nデフォルト設定を使用します\n", err)
			cfg = config.DefaultConfig()
		} else {
			fmt.Printf("設定ファイルを読み込みました: %s\n", cfgPath)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	// シグナルハンドラの設定
	handleSignals()

	// APIモードかCLIモードかを判断
	if *useApi {
		// APIモードで実行
		fmt.Printf("APIサーバーモードで起動します (ポート: %d)...\n", *port)
		if *openBrowser {
			go openStatusPage(*port)
		}
		runApiServer(cfg, *port)
	} else {
		// CLIモードで実行
		fmt.Println("CLIモードで起動します...")
		runCLI(cfg, cfgPath)
	}
}

// APIサーバーモードでの実行
func runApiServer(cfg *config.Config, port int) {
	// APIサーバーを作成
	server := api.NewServer(cfg, port)

	// サーバー起動
	if err := server.Start(); err != nil {
		log.Fatalf("APIサーバーの起動に失敗しました: %v", err)
	}
}

// CLIモードでの実行
func runCLI(cfg *config.Config, cfgPath string) {
	// フィルタサービスを作成
	service := api.NewFilterService(cfg)

	// サービス開始
	if err := service.Start(); err != nil {
		fmt.Printf("フィルタサービスの起動に失敗しました: %v\n", err)
		os.Exit(1)
	}

	// 設定ファイルの変更を監視して実行中のサービスへ反映する
	if cfgPath != "" {
		stop, err := config.WatchConfig(cfgPath, service.UpdateConfig)
		if err != nil {
			log.Printf("設定ファイルの監視を開始できませんでした: %v", err)
		} else {
			defer stop()
		}
	}

	// シグナルが来るまで待機（終了処理はhandleSignals内で行われる）
	select {}
}

// ステータスページをブラウザで開く
func openStatusPage(port int) {
	// サーバーの起動を待ってから開く
	time.Sleep(500 * time.Millisecond)
	url := fmt.Sprintf("http://localhost:%d/", port)
	if err := browser.OpenURL(url); err != nil {
		log.Printf("ブラウザを開けませんでした: %v", err)
	}
}

func handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("シャットダウンします...")
		os.Exit(0)
	}()
}
