// Discord adapter for the automod engine: converts gateway message events, carries out moderation actions through the REST API, and renders mod-log embeds.
package discord
