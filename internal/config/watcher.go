package config

import (
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchConfig は設定ファイルの変更を監視し、変更のたびに再読み込みして
// onChangeを呼び出す。返された関数を呼ぶと監視を停止する
func WatchConfig(configPath string, onChange func(*Config)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// エディタの保存はrename+createで行われることが多いため、
	// ファイルではなくディレクトリを監視する
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		watcher.Close()
		return nil, err
	}

	stopChan := make(chan struct{})

	go func() {
		for {
			select {
			case <-stopChan:
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(configPath) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := LoadConfig(configPath)
				if err != nil {
					log.Printf("設定ファイルの再読み込みに失敗しました: %v", err)
					continue
				}
				log.Printf("設定ファイルの変更を検出しました: %s", configPath)
				onChange(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("設定ファイル監視エラー: %v", err)
			}
		}
	}()

	return func() {
		close(stopChan)
		watcher.Close()
	}, nil
}
