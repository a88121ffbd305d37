package dailyscot

import (
	"fmt"

	"github.com/alexandre-normand/dailyscot/config"
	"github.com/hashicorp/golang-lru"
	"github.com/slack-go/slack"
	"github.com/spf13/viper"
)

const botInfoCacheSizeDisabledValue = 0

// BotInfoFinder defines the interface for finding a slack bot's info. *slack.Client implements it
type BotInfoFinder interface {
	GetBotInfo(parameters slack.GetBotInfoParameters) (bot *slack.Bot, err error)
}

// cachingBotInfoFinder holds a cache and a loading BotInfoFinder to implement the BotInfoFinder loading entries from cache
type cachingBotInfoFinder struct {
	loader       BotInfoFinder
	logger       SLogger
	botInfoCache *lru.ARCCache
}

// NewCachingBotInfoFinder creates a new bot info finder with caching if enabled via config.BotInfoCacheSizeKey. It requires an implementation
// of the interface that will do the actual loading when not in cache
func NewCachingBotInfoFinder(v *viper.Viper, loader BotInfoFinder, logger SLogger) (bf BotInfoFinder, err error) {
	cbf := new(cachingBotInfoFinder)

	cs := v.GetInt(config.BotInfoCacheSizeKey)

	if cs < botInfoCacheSizeDisabledValue {
		return nil, fmt.Errorf("invalid %s [%d], should be %d (disabled) or greater", config.BotInfoCacheSizeKey, cs, botInfoCacheSizeDisabledValue)
	}

	if cs > botInfoCacheSizeDisabledValue {
		cbf.botInfoCache, err = lru.NewARC(cs)
		if err != nil {
			return nil, err
		}
	}

	cbf.loader = loader
	cbf.logger = logger

	return cbf, nil
}

// GetBotInfo gets the bot info or returns an error and a nil bot if not found or
// an error occurred during retrieval
func (c cachingBotInfoFinder) GetBotInfo(parameters slack.GetBotInfoParameters) (b *slack.Bot, err error) {
	if c.botInfoCache == nil {
		c.logger.Debugf("Cache disabled, loading bot info for [%s] from slack instead\n", parameters.Bot)
		return c.loader.GetBotInfo(parameters)
	}

	if botInfo, exists := c.botInfoCache.Get(parameters.Bot); exists {
		c.logger.Debugf("Bot info in cache [%s] so using that\n", parameters.Bot)

		botInfo, ok := botInfo.(slack.Bot)
		if !ok {
			return nil, fmt.Errorf("Error converting cached value for bot id [%s]", parameters.Bot)
		}

		return &botInfo, nil
	}

	c.logger.Debugf("Bot info for [%s] not found in cache, retrieving from slack and saving\n", parameters.Bot)
	b, err = c.loader.GetBotInfo(parameters)
	if err != nil {
		return nil, err
	}

	c.botInfoCache.Add(parameters.Bot, *b)

	return b, nil
}
